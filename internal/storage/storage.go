package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codechunk/pkg/types"
)

// ProjectStore manages project records, one per indexed root directory.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
}

// FileStore tracks the source files belonging to a project.
type FileStore interface {
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	GetFileByHash(ctx context.Context, contentHash [32]byte) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)
}

// ChunkStore persists extracted chunks. Upserts key on the file, symbol and
// start line so re-indexing an unchanged file rewrites rows in place.
type ChunkStore interface {
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error)
	DeleteChunk(ctx context.Context, chunkID int64) error
	DeleteChunksBatch(ctx context.Context, chunkIDs []int64) (deletedCount int, err error)
	DeleteChunksByFile(ctx context.Context, fileID int64) error
}

// EmbeddingStore persists one vector per chunk.
type EmbeddingStore interface {
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)
	DeleteEmbedding(ctx context.Context, chunkID int64) error
}

// ImportStore records the dependencies each file pulls in.
type ImportStore interface {
	UpsertImport(ctx context.Context, imp *Import) error
	ListImportsByFile(ctx context.Context, fileID int64) ([]*Import, error)
	DeleteImportsByFile(ctx context.Context, fileID int64) error
}

// SearchStore answers the three query shapes: symbol prefix lookup, vector
// similarity over embeddings, and BM25 full-text match.
type SearchStore interface {
	SearchSymbols(ctx context.Context, projectID int64, name string, limit int) ([]*Chunk, error)
	SearchVector(ctx context.Context, projectID int64, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error)
	SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error)
}

// Storage is the full persistence surface. Both the database handle and an
// open transaction satisfy it.
type Storage interface {
	ProjectStore
	FileStore
	ChunkStore
	EmbeddingStore
	ImportStore
	SearchStore

	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a Storage scoped to one transaction. Exactly one of Commit or
// Rollback must be called.
type Tx interface {
	Storage
	Commit() error
	Rollback() error
}

// Project is one indexed codebase, keyed by its root path.
type Project struct {
	ID            int64
	RootPath      string
	Name          string
	IndexVersion  string
	TotalFiles    int
	TotalChunks   int
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// File is one tracked source file. FilePath is relative to the project
// root; ParseError holds the last parser failure, nil when parsing
// succeeded.
type File struct {
	ID            int64
	ProjectID     int64
	FilePath      string
	Language      string
	ContentHash   [32]byte
	SizeBytes     int64
	ModTime       time.Time
	ParseError    *string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Chunk is the stored form of an extracted code chunk. Metadata carries the
// chunk's metadata map as a JSON string, empty when the map was empty.
type Chunk struct {
	ID          int64
	FileID      int64
	Symbol      string
	ChunkType   string
	Content     string
	ContentHash [32]byte
	StartLine   int
	EndLine     int
	TokenCount  int
	Metadata    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Embedding is the stored vector for one chunk. Vector holds the
// little-endian float32 blob produced by SerializeVector.
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []byte
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// Import is one dependency reference extracted from a file.
type Import struct {
	ID         int64
	FileID     int64
	Reference  string
	ImportType string
	CreatedAt  time.Time
}

// SearchFilters narrows vector and text search results. Zero values mean
// unfiltered; FilePattern is a GLOB over relative file paths, Macros names
// recognized framework macro annotations, and MinRelevance drops results
// scoring below it.
type SearchFilters struct {
	ChunkTypes   []string
	Languages    []string
	FilePattern  string
	Macros       []string
	MinRelevance float64
}

// VectorResult is one vector search hit. SimilarityScore is cosine
// similarity in [0, 1], higher is better.
type VectorResult struct {
	ChunkID         int64
	SimilarityScore float64
}

// TextResult is one full-text search hit. BM25Score is the raw score
// normalized into (0, 1], higher is better.
type TextResult struct {
	ChunkID   int64
	BM25Score float64
}

// ProjectStatus aggregates index statistics for one project.
type ProjectStatus struct {
	Project         *Project
	FilesCount      int
	ChunksCount     int
	EmbeddingsCount int
	LanguageCounts  map[string]int
	IndexSizeMB     float64
	LastIndexedAt   time.Time
	IndexDuration   time.Duration
	Health          HealthStatus
}

// HealthStatus reports whether the pieces of the index are usable.
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
	FTSIndexesBuilt     bool
}

// FromTypesChunk converts an extracted chunk to its storage row,
// serializing the metadata map to JSON.
func FromTypesChunk(c *types.Chunk) (*Chunk, error) {
	var meta string
	if len(c.Metadata) > 0 {
		data, err := json.Marshal(c.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chunk metadata: %w", err)
		}
		meta = string(data)
	}

	return &Chunk{
		ID:          c.ID,
		FileID:      c.FileID,
		Symbol:      c.Symbol,
		ChunkType:   string(c.ChunkType),
		Content:     c.Content,
		ContentHash: c.ContentHash,
		StartLine:   c.StartLine,
		EndLine:     c.EndLine,
		TokenCount:  c.TokenCount,
		Metadata:    meta,
	}, nil
}

// ToTypesChunk converts a storage row back to an extracted chunk.
func (c *Chunk) ToTypesChunk() (types.Chunk, error) {
	var meta types.Metadata
	if c.Metadata != "" {
		if err := json.Unmarshal([]byte(c.Metadata), &meta); err != nil {
			return types.Chunk{}, fmt.Errorf("failed to unmarshal chunk metadata: %w", err)
		}
	}

	return types.Chunk{
		ID:          c.ID,
		FileID:      c.FileID,
		Symbol:      c.Symbol,
		ChunkType:   types.ChunkType(c.ChunkType),
		Content:     c.Content,
		ContentHash: c.ContentHash,
		StartLine:   c.StartLine,
		EndLine:     c.EndLine,
		TokenCount:  c.TokenCount,
		Metadata:    meta,
	}, nil
}
