package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"codechunk/internal/chunker"
	"codechunk/internal/embedder"
	"codechunk/internal/language"
	"codechunk/internal/parser"
	"codechunk/internal/storage"
	"codechunk/pkg/types"
)

// ErrIndexInProgress is returned when an index run is already active on
// this Indexer.
var ErrIndexInProgress = errors.New("indexing already in progress")

// Indexer coordinates the indexing pipeline: walk -> parse -> chunk -> store
type Indexer struct {
	registry *language.Registry
	chunker  *chunker.Chunker
	storage  storage.Storage
	embedder embedder.Embedder // nil disables embedding

	workers int
	lock    IndexLock
}

// ProgressFunc receives a notification after each file finishes, whatever
// the outcome. Implementations must be safe for concurrent use.
type ProgressFunc func(done, total int, path string)

// Config contains configuration for an index run
type Config struct {
	Workers    int          // Number of concurrent workers (default: runtime.NumCPU())
	Include    []string     // Include globs (default: every registry language)
	Exclude    []string     // Exclude globs, appended to DefaultExcludes
	Embed      bool         // Generate embeddings for stored chunks
	OnProgress ProgressFunc // Optional progress callback
}

// Statistics contains the outcome of an index run
type Statistics struct {
	FilesScanned      int
	FilesIndexed      int
	FilesSkipped      int
	FilesFailed       int
	FilesDeleted      int
	ChunksCreated     int
	EmbeddingsCreated int
	Duration          time.Duration
	ErrorMessages     []string
}

// New creates a new Indexer instance. The embedder may be nil, in which
// case Config.Embed is ignored.
func New(registry *language.Registry, store storage.Storage, emb embedder.Embedder) *Indexer {
	return &Indexer{
		registry: registry,
		chunker:  chunker.New(),
		storage:  store,
		embedder: emb,
		workers:  runtime.NumCPU(),
	}
}

// IndexProject indexes every matching file under rootPath. Unchanged files
// are skipped by content hash; changed files have their chunks replaced in
// one transaction. Only one run may be active per Indexer at a time.
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	if config == nil {
		config = &Config{}
	}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	idx.workers = workers

	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	project, err := idx.getOrCreateProject(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	walker := NewWalker(idx.registry, config.Include, config.Exclude)
	files, err := walker.Walk(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	stats.FilesScanned = len(files)

	if err := idx.indexFiles(ctx, project, files, config, stats); err != nil {
		return nil, err
	}

	if err := idx.removeDeletedFiles(ctx, project, files, stats); err != nil {
		return nil, fmt.Errorf("failed to remove deleted files: %w", err)
	}

	if err := idx.refreshProjectStats(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to refresh project stats: %w", err)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// getOrCreateProject returns the project row for rootPath, registering a
// new project on first contact.
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string) (*storage.Project, error) {
	project, err := idx.storage.GetProject(ctx, rootPath)
	if errors.Is(err, storage.ErrNotFound) {
		project = &storage.Project{
			RootPath:     rootPath,
			Name:         filepath.Base(rootPath),
			IndexVersion: storage.CurrentSchemaVersion,
		}
		if err := idx.storage.CreateProject(ctx, project); err != nil {
			return nil, err
		}
		return project, nil
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

// indexFiles processes the file list with a bounded worker pool. Each file
// gets its own goroutine; the weighted semaphore caps concurrency and a
// fixed pool of engines is recycled across files.
func (idx *Indexer) indexFiles(ctx context.Context, project *storage.Project, files []string, config *Config, stats *Statistics) error {
	var (
		indexed    int32
		skipped    int32
		failed     int32
		chunks     int32
		embeddings int32
		done       int32
	)

	engines := make(chan *parser.Engine, idx.workers)
	for i := 0; i < idx.workers; i++ {
		engines <- parser.New(idx.registry)
	}
	defer func() {
		close(engines)
		for e := range engines {
			e.Close()
		}
	}()

	sem := semaphore.NewWeighted(int64(idx.workers))
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex // Protects stats.ErrorMessages

	total := len(files)
	for _, filePath := range files {
		// Cancellation is file-granular: a file already being processed
		// runs to completion, no new file starts.
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}

		g.Go(func() error {
			defer sem.Release(1)

			engine := <-engines
			defer func() { engines <- engine }()

			res, err := idx.indexFile(gctx, engine, project, filePath, config.Embed)
			switch {
			case err != nil:
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", filePath, err))
				mu.Unlock()
			case res.skipped:
				atomic.AddInt32(&skipped, 1)
			default:
				atomic.AddInt32(&indexed, 1)
				atomic.AddInt32(&chunks, int32(res.chunks))
				atomic.AddInt32(&embeddings, int32(res.embeddings))
				if res.embedErr != nil {
					mu.Lock()
					stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: embedding failed: %v", filePath, res.embedErr))
					mu.Unlock()
				}
			}

			if config.OnProgress != nil {
				n := int(atomic.AddInt32(&done, 1))
				config.OnProgress(n, total, filePath)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stats.FilesIndexed = int(indexed)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	stats.ChunksCreated = int(chunks)
	stats.EmbeddingsCreated = int(embeddings)

	return nil
}

// removeDeletedFiles drops index records for files that are gone from disk.
// A file merely outside this walk's include patterns is kept, so a scoped
// re-index never empties the rest of the project. Chunks are deleted
// explicitly to fire the FTS sync triggers; embeddings and imports cascade.
func (idx *Indexer) removeDeletedFiles(ctx context.Context, project *storage.Project, walked []string, stats *Statistics) error {
	seen := make(map[string]struct{}, len(walked))
	for _, path := range walked {
		rel, err := filepath.Rel(project.RootPath, path)
		if err != nil {
			continue
		}
		seen[filepath.ToSlash(rel)] = struct{}{}
	}

	dbFiles, err := idx.storage.ListFiles(ctx, project.ID)
	if err != nil {
		return err
	}

	for _, file := range dbFiles {
		if _, ok := seen[file.FilePath]; ok {
			continue
		}
		abs := filepath.Join(project.RootPath, filepath.FromSlash(file.FilePath))
		if _, err := os.Stat(abs); err == nil {
			continue
		}
		if err := idx.storage.DeleteChunksByFile(ctx, file.ID); err != nil {
			return err
		}
		if err := idx.storage.DeleteFile(ctx, file.ID); err != nil {
			return err
		}
		stats.FilesDeleted++
	}
	return nil
}

// fileResult reports what happened to a single file
type fileResult struct {
	skipped    bool
	chunks     int
	embeddings int
	embedErr   error // non-fatal: chunks stored, vectors missing
}

// indexFile runs the pipeline for one file. Parsing and chunk population
// happen outside the transaction; the store step replaces the file's chunks
// and imports atomically.
func (idx *Indexer) indexFile(ctx context.Context, engine *parser.Engine, project *storage.Project, filePath string, embed bool) (fileResult, error) {
	var res fileResult

	relPath, err := filepath.Rel(project.RootPath, filePath)
	if err != nil {
		return res, err
	}
	relPath = filepath.ToSlash(relPath)

	source, err := os.ReadFile(filePath)
	if err != nil {
		return res, err
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return res, err
	}
	hash := sha256.Sum256(source)

	existing, err := idx.storage.GetFile(ctx, project.ID, relPath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return res, err
	}
	if existing != nil && existing.ContentHash == hash {
		res.skipped = true
		return res, nil
	}

	lang := idx.registry.Detect(relPath)

	var fileID int64
	if existing != nil {
		fileID = existing.ID
	}

	chunks, parseErr := engine.ParseContent(source, relPath, fileID)
	if parseErr == nil {
		chunks = idx.chunker.Populate(chunks, source)
	}

	file := &storage.File{
		ProjectID:   project.ID,
		FilePath:    relPath,
		Language:    lang.String(),
		ContentHash: hash,
		ModTime:     info.ModTime(),
		SizeBytes:   info.Size(),
	}
	if parseErr != nil {
		// Record the failure with the content hash so the same broken
		// file is not re-parsed on every run.
		msg := parseErr.Error()
		file.ParseError = &msg
	}

	stored, err := idx.storeFile(ctx, file, chunks)
	if err != nil {
		return res, err
	}
	res.chunks = len(stored)

	if parseErr != nil {
		return res, parseErr
	}

	if embed && idx.embedder != nil && len(stored) > 0 {
		// An embedding failure is not fatal: the chunks are committed and
		// text-searchable, only the vectors are missing.
		n, err := idx.embedChunks(ctx, relPath, chunks, stored)
		res.embeddings = n
		res.embedErr = err
	}

	return res, nil
}

// storeFile replaces the file record, its chunks, and its imports in one
// transaction. Returns the stored chunk rows with IDs assigned.
func (idx *Indexer) storeFile(ctx context.Context, file *storage.File, chunks []types.Chunk) ([]*storage.Chunk, error) {
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpsertFile(ctx, file); err != nil {
		return nil, err
	}
	if err := tx.DeleteChunksByFile(ctx, file.ID); err != nil {
		return nil, err
	}
	if err := tx.DeleteImportsByFile(ctx, file.ID); err != nil {
		return nil, err
	}

	stored := make([]*storage.Chunk, 0, len(chunks))
	for i := range chunks {
		if err := chunks[i].Validate(); err != nil {
			return nil, fmt.Errorf("refusing to store chunk: %w", err)
		}
		row, err := storage.FromTypesChunk(&chunks[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert chunk %q: %w", chunks[i].Symbol, err)
		}
		row.FileID = file.ID
		if err := tx.UpsertChunk(ctx, row); err != nil {
			return nil, fmt.Errorf("failed to store chunk %q: %w", chunks[i].Symbol, err)
		}
		stored = append(stored, row)

		if chunks[i].ChunkType == types.ChunkImport {
			imp := &storage.Import{
				FileID:     file.ID,
				Reference:  chunks[i].Metadata.GetString(types.MetaReference),
				ImportType: chunks[i].Metadata.GetString(types.MetaImportType),
			}
			if err := tx.UpsertImport(ctx, imp); err != nil {
				return nil, fmt.Errorf("failed to store import: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stored, nil
}

// embedChunks generates embeddings for freshly stored chunks in provider
// batches. Runs after the storage transaction commits so no network call
// ever holds the write lock.
func (idx *Indexer) embedChunks(ctx context.Context, path string, chunks []types.Chunk, stored []*storage.Chunk) (int, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = idx.chunker.EmbeddingText(&chunks[i], path)
	}

	count := 0
	for start := 0; start < len(texts); start += embedder.DefaultBatchSize {
		end := start + embedder.DefaultBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := idx.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
			Texts: texts[start:end],
		})
		if err != nil {
			return count, err
		}

		for i, emb := range resp.Embeddings {
			row := &storage.Embedding{
				ChunkID:   stored[start+i].ID,
				Vector:    storage.SerializeVector(emb.Vector),
				Dimension: emb.Dimension,
				Provider:  emb.Provider,
				Model:     emb.Model,
			}
			if err := idx.storage.UpsertEmbedding(ctx, row); err != nil {
				return count, err
			}
			count++
		}
	}

	return count, nil
}

// refreshProjectStats reloads the project's file and chunk counts from the
// store and stamps the index time.
func (idx *Indexer) refreshProjectStats(ctx context.Context, project *storage.Project) error {
	status, err := idx.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return err
	}
	project.TotalFiles = status.FilesCount
	project.TotalChunks = status.ChunksCount
	project.LastIndexedAt = time.Now()
	return idx.storage.UpdateProject(ctx, project)
}
