package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Every operation below is written against it, so the same code serves
// both direct calls and transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// rowScanner abstracts over *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// SQLiteStorage implements Storage over a single SQLite database file.
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens the SQLite file and applies the connection settings
// the rest of the package assumes.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// One connection total. SQLite allows a single writer, and pinning the
	// pool to one connection also guarantees the per-connection pragmas
	// below apply to every statement this process runs.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL keeps readers unblocked during index writes. The busy timeout
	// covers the serve process and CLI commands sharing one database file.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return db, nil
}

// NewSQLiteStorage opens the database at dbPath, creating it and applying
// schema migrations as needed.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a transaction. All Storage methods on the returned Tx run
// inside it.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error   { return t.tx.Commit() }
func (t *sqliteTx) Rollback() error { return t.tx.Rollback() }

func (t *sqliteTx) Close() error {
	// the connection belongs to the pool, not the transaction
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// no savepoints; a nested begin is always a caller bug
	return nil, errors.New("nested transactions not supported")
}

// mapNoRows converts sql.ErrNoRows into the package sentinel.
func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// collectRows drains rows through scan, closing them when done.
func collectRows[T any](rows *sql.Rows, scan func(rowScanner) (*T, error)) ([]*T, error) {
	defer func() { _ = rows.Close() }()

	out := make([]*T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Projects

const projectColumns = `id, root_path, name, total_files, total_chunks,
	index_version, last_indexed_at, created_at, updated_at`

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var lastIndexed sql.NullTime
	if err := row.Scan(&p.ID, &p.RootPath, &p.Name, &p.TotalFiles, &p.TotalChunks,
		&p.IndexVersion, &lastIndexed, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if lastIndexed.Valid {
		p.LastIndexedAt = lastIndexed.Time
	}
	return &p, nil
}

func createProject(ctx context.Context, q querier, project *Project) error {
	now := time.Now()
	res, err := q.ExecContext(ctx,
		`INSERT INTO projects (root_path, name, index_version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		project.RootPath, project.Name, project.IndexVersion, now, now)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = id
	project.CreatedAt, project.UpdatedAt = now, now
	return nil
}

func getProject(ctx context.Context, q querier, rootPath string) (*Project, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE root_path = ?`, rootPath)
	p, err := scanProject(row)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

func getProjectByID(ctx context.Context, q querier, projectID int64) (*Project, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, projectID)
	p, err := scanProject(row)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return p, nil
}

func updateProject(ctx context.Context, q querier, project *Project) error {
	now := time.Now()
	_, err := q.ExecContext(ctx,
		`UPDATE projects
		 SET name = ?, total_files = ?, total_chunks = ?, last_indexed_at = ?, updated_at = ?
		 WHERE id = ?`,
		project.Name, project.TotalFiles, project.TotalChunks, project.LastIndexedAt, now, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	project.UpdatedAt = now
	return nil
}

// Files

const fileColumns = `id, project_id, file_path, language, content_hash, mod_time,
	size_bytes, parse_error, last_indexed_at, created_at, updated_at`

func scanFile(row rowScanner) (*File, error) {
	var f File
	var hash []byte
	var parseError sql.NullString
	if err := row.Scan(&f.ID, &f.ProjectID, &f.FilePath, &f.Language, &hash,
		&f.ModTime, &f.SizeBytes, &parseError,
		&f.LastIndexedAt, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	copy(f.ContentHash[:], hash)
	if parseError.Valid {
		f.ParseError = &parseError.String
	}
	return &f, nil
}

func upsertFile(ctx context.Context, q querier, file *File) error {
	now := time.Now()
	err := q.QueryRowContext(ctx,
		`INSERT INTO files (project_id, file_path, language, content_hash, mod_time,
		                    size_bytes, parse_error, last_indexed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, file_path) DO UPDATE SET
		 	language = excluded.language,
		 	content_hash = excluded.content_hash,
		 	mod_time = excluded.mod_time,
		 	size_bytes = excluded.size_bytes,
		 	parse_error = excluded.parse_error,
		 	last_indexed_at = excluded.last_indexed_at,
		 	updated_at = excluded.updated_at
		 RETURNING id`,
		file.ProjectID, file.FilePath, file.Language, file.ContentHash[:],
		file.ModTime, file.SizeBytes, file.ParseError, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.LastIndexedAt, file.UpdatedAt = now, now
	return nil
}

func getFile(ctx context.Context, q querier, projectID int64, filePath string) (*File, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE project_id = ? AND file_path = ?`,
		projectID, filePath)
	f, err := scanFile(row)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return f, nil
}

func getFileByID(ctx context.Context, q querier, fileID int64) (*File, error) {
	row := q.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, fileID)
	f, err := scanFile(row)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return f, nil
}

func getFileByHash(ctx context.Context, q querier, contentHash [32]byte) (*File, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE content_hash = ? LIMIT 1`, contentHash[:])
	f, err := scanFile(row)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return f, nil
}

func deleteFile(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, fileID)
	return err
}

func listFiles(ctx context.Context, q querier, projectID int64) ([]*File, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE project_id = ? ORDER BY file_path`, projectID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanFile)
}

// Chunks

const chunkColumns = `id, file_id, symbol, chunk_type, content, content_hash,
	token_count, start_line, end_line, metadata, created_at, updated_at`

func scanChunk(row rowScanner) (*Chunk, error) {
	var c Chunk
	var hash []byte
	var metadata sql.NullString
	if err := row.Scan(&c.ID, &c.FileID, &c.Symbol, &c.ChunkType, &c.Content, &hash,
		&c.TokenCount, &c.StartLine, &c.EndLine, &metadata,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	copy(c.ContentHash[:], hash)
	if metadata.Valid {
		c.Metadata = metadata.String
	}
	return &c, nil
}

// upsertChunk writes a chunk row. A chunk's identity within a file is its
// symbol plus start line, so re-indexing a changed file updates rows in
// place instead of accumulating duplicates.
func upsertChunk(ctx context.Context, q querier, chunk *Chunk) error {
	now := time.Now()
	err := q.QueryRowContext(ctx,
		`INSERT INTO chunks (file_id, symbol, chunk_type, content, content_hash,
		                     token_count, start_line, end_line, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file_id, symbol, start_line) DO UPDATE SET
		 	chunk_type = excluded.chunk_type,
		 	content = excluded.content,
		 	content_hash = excluded.content_hash,
		 	token_count = excluded.token_count,
		 	end_line = excluded.end_line,
		 	metadata = excluded.metadata,
		 	updated_at = excluded.updated_at
		 RETURNING id, created_at, updated_at`,
		chunk.FileID, chunk.Symbol, chunk.ChunkType, chunk.Content,
		chunk.ContentHash[:], chunk.TokenCount, chunk.StartLine, chunk.EndLine,
		chunk.Metadata, now, now).Scan(&chunk.ID, &chunk.CreatedAt, &chunk.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

func getChunk(ctx context.Context, q querier, chunkID int64) (*Chunk, error) {
	row := q.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, chunkID)
	c, err := scanChunk(row)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return c, nil
}

func listChunksByFile(ctx context.Context, q querier, fileID int64) ([]*Chunk, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE file_id = ? ORDER BY start_line`, fileID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanChunk)
}

func deleteChunk(ctx context.Context, q querier, chunkID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE id = ?`, chunkID)
	return err
}

func deleteChunksBatch(ctx context.Context, q querier, chunkIDs []int64) (int, error) {
	if len(chunkIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunkIDs)), ",")
	args := make([]interface{}, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	res, err := q.ExecContext(ctx,
		`DELETE FROM chunks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func deleteChunksByFile(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM chunks WHERE file_id = ?`, fileID)
	return err
}

// searchSymbols returns declaration chunks whose symbol contains name,
// shortest symbols first so exact matches sort to the top. Fuzzy ranking
// happens in the searcher, which re-orders candidates by edit distance.
func searchSymbols(ctx context.Context, q querier, projectID int64, name string, limit int) ([]*Chunk, error) {
	pattern := "%" + escapeLike(name) + "%"
	rows, err := q.QueryContext(ctx,
		`SELECT c.id, c.file_id, c.symbol, c.chunk_type, c.content, c.content_hash,
		        c.token_count, c.start_line, c.end_line, c.metadata, c.created_at, c.updated_at
		 FROM chunks c
		 JOIN files f ON c.file_id = f.id
		 WHERE f.project_id = ?
		   AND c.symbol LIKE ? ESCAPE '\'
		   AND c.chunk_type IN ('class', 'module', 'method', 'function', 'constant', 'type')
		 ORDER BY LENGTH(c.symbol), c.symbol
		 LIMIT ?`,
		projectID, pattern, limit)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanChunk)
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Embeddings

func upsertEmbedding(ctx context.Context, q querier, embedding *Embedding) error {
	now := time.Now()
	err := q.QueryRowContext(ctx,
		`INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(chunk_id) DO UPDATE SET
		 	vector = excluded.vector,
		 	dimension = excluded.dimension,
		 	provider = excluded.provider,
		 	model = excluded.model
		 RETURNING id, created_at`,
		embedding.ChunkID, embedding.Vector, embedding.Dimension,
		embedding.Provider, embedding.Model, now).Scan(&embedding.ID, &embedding.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

func getEmbedding(ctx context.Context, q querier, chunkID int64) (*Embedding, error) {
	var e Embedding
	err := q.QueryRowContext(ctx,
		`SELECT id, chunk_id, vector, dimension, provider, model, created_at
		 FROM embeddings WHERE chunk_id = ?`, chunkID).Scan(
		&e.ID, &e.ChunkID, &e.Vector, &e.Dimension, &e.Provider, &e.Model, &e.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &e, nil
}

func deleteEmbedding(ctx context.Context, q querier, chunkID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM embeddings WHERE chunk_id = ?`, chunkID)
	return err
}

// Imports

func scanImport(row rowScanner) (*Import, error) {
	var imp Import
	if err := row.Scan(&imp.ID, &imp.FileID, &imp.Reference, &imp.ImportType, &imp.CreatedAt); err != nil {
		return nil, err
	}
	return &imp, nil
}

func upsertImport(ctx context.Context, q querier, imp *Import) error {
	now := time.Now()
	res, err := q.ExecContext(ctx,
		`INSERT INTO imports (file_id, reference, import_type, created_at)
		 VALUES (?, ?, ?, ?)`,
		imp.FileID, imp.Reference, imp.ImportType, now)
	if err != nil {
		return fmt.Errorf("failed to upsert import: %w", err)
	}

	if imp.ID == 0 {
		if id, err := res.LastInsertId(); err == nil {
			imp.ID = id
		}
	}
	imp.CreatedAt = now
	return nil
}

func listImportsByFile(ctx context.Context, q querier, fileID int64) ([]*Import, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, file_id, reference, import_type, created_at
		 FROM imports WHERE file_id = ? ORDER BY reference`, fileID)
	if err != nil {
		return nil, err
	}
	return collectRows(rows, scanImport)
}

func deleteImportsByFile(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM imports WHERE file_id = ?`, fileID)
	return err
}

// Status

func countRow(ctx context.Context, q querier, query string, args ...interface{}) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func languageCounts(ctx context.Context, q querier, projectID int64) (map[string]int, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT language, COUNT(*) FROM files WHERE project_id = ? GROUP BY language`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return nil, err
		}
		counts[lang] = n
	}
	return counts, rows.Err()
}

// databaseSizeMB reports the database file size from the page pragmas.
// Failures degrade to zero rather than failing the status call.
func databaseSizeMB(ctx context.Context, q querier) float64 {
	var pages, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pages); err != nil {
		return 0
	}
	if err := q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return float64(pages*pageSize) / (1024 * 1024)
}

func getStatus(ctx context.Context, q querier, projectID int64) (*ProjectStatus, error) {
	project, err := getProjectByID(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	files, err := countRow(ctx, q,
		`SELECT COUNT(*) FROM files WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, err
	}
	chunks, err := countRow(ctx, q,
		`SELECT COUNT(*) FROM chunks c
		 JOIN files f ON c.file_id = f.id
		 WHERE f.project_id = ?`, projectID)
	if err != nil {
		return nil, err
	}
	embeddings, err := countRow(ctx, q,
		`SELECT COUNT(*) FROM embeddings e
		 JOIN chunks c ON e.chunk_id = c.id
		 JOIN files f ON c.file_id = f.id
		 WHERE f.project_id = ?`, projectID)
	if err != nil {
		return nil, err
	}
	langs, err := languageCounts(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	return &ProjectStatus{
		Project:         project,
		FilesCount:      files,
		ChunksCount:     chunks,
		EmbeddingsCount: embeddings,
		LanguageCounts:  langs,
		IndexSizeMB:     databaseSizeMB(ctx, q),
		LastIndexedAt:   project.LastIndexedAt,
		Health: HealthStatus{
			DatabaseAccessible:  true,
			EmbeddingsAvailable: embeddings > 0,
			FTSIndexesBuilt:     true, // created by migrations
		},
	}, nil
}

// Storage methods run against the pooled connection.

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return createProject(ctx, s.db, project)
}

func (s *SQLiteStorage) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return getProject(ctx, s.db, rootPath)
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return updateProject(ctx, s.db, project)
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return upsertFile(ctx, s.db, file)
}

func (s *SQLiteStorage) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return getFile(ctx, s.db, projectID, filePath)
}

func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return getFileByID(ctx, s.db, fileID)
}

func (s *SQLiteStorage) GetFileByHash(ctx context.Context, contentHash [32]byte) (*File, error) {
	return getFileByHash(ctx, s.db, contentHash)
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return deleteFile(ctx, s.db, fileID)
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return listFiles(ctx, s.db, projectID)
}

func (s *SQLiteStorage) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return upsertChunk(ctx, s.db, chunk)
}

func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return getChunk(ctx, s.db, chunkID)
}

func (s *SQLiteStorage) ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error) {
	return listChunksByFile(ctx, s.db, fileID)
}

func (s *SQLiteStorage) DeleteChunk(ctx context.Context, chunkID int64) error {
	return deleteChunk(ctx, s.db, chunkID)
}

func (s *SQLiteStorage) DeleteChunksBatch(ctx context.Context, chunkIDs []int64) (int, error) {
	return deleteChunksBatch(ctx, s.db, chunkIDs)
}

func (s *SQLiteStorage) DeleteChunksByFile(ctx context.Context, fileID int64) error {
	return deleteChunksByFile(ctx, s.db, fileID)
}

func (s *SQLiteStorage) SearchSymbols(ctx context.Context, projectID int64, name string, limit int) ([]*Chunk, error) {
	return searchSymbols(ctx, s.db, projectID, name, limit)
}

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return upsertEmbedding(ctx, s.db, embedding)
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return getEmbedding(ctx, s.db, chunkID)
}

func (s *SQLiteStorage) DeleteEmbedding(ctx context.Context, chunkID int64) error {
	return deleteEmbedding(ctx, s.db, chunkID)
}

func (s *SQLiteStorage) SearchVector(ctx context.Context, projectID int64, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, s.db, projectID, queryVector, limit, filters)
}

func (s *SQLiteStorage) SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, s.db, projectID, query, limit, filters)
}

func (s *SQLiteStorage) UpsertImport(ctx context.Context, imp *Import) error {
	return upsertImport(ctx, s.db, imp)
}

func (s *SQLiteStorage) ListImportsByFile(ctx context.Context, fileID int64) ([]*Import, error) {
	return listImportsByFile(ctx, s.db, fileID)
}

func (s *SQLiteStorage) DeleteImportsByFile(ctx context.Context, fileID int64) error {
	return deleteImportsByFile(ctx, s.db, fileID)
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return getStatus(ctx, s.db, projectID)
}

// Tx methods run the same functions inside the transaction. The pool holds
// a single connection, so touching the DB directly while a transaction is
// open would block.

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return createProject(ctx, t.tx, project)
}

func (t *sqliteTx) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return getProject(ctx, t.tx, rootPath)
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return updateProject(ctx, t.tx, project)
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return upsertFile(ctx, t.tx, file)
}

func (t *sqliteTx) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return getFile(ctx, t.tx, projectID, filePath)
}

func (t *sqliteTx) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return getFileByID(ctx, t.tx, fileID)
}

func (t *sqliteTx) GetFileByHash(ctx context.Context, contentHash [32]byte) (*File, error) {
	return getFileByHash(ctx, t.tx, contentHash)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return deleteFile(ctx, t.tx, fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return listFiles(ctx, t.tx, projectID)
}

func (t *sqliteTx) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return upsertChunk(ctx, t.tx, chunk)
}

func (t *sqliteTx) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	return getChunk(ctx, t.tx, chunkID)
}

func (t *sqliteTx) ListChunksByFile(ctx context.Context, fileID int64) ([]*Chunk, error) {
	return listChunksByFile(ctx, t.tx, fileID)
}

func (t *sqliteTx) DeleteChunk(ctx context.Context, chunkID int64) error {
	return deleteChunk(ctx, t.tx, chunkID)
}

func (t *sqliteTx) DeleteChunksBatch(ctx context.Context, chunkIDs []int64) (int, error) {
	return deleteChunksBatch(ctx, t.tx, chunkIDs)
}

func (t *sqliteTx) DeleteChunksByFile(ctx context.Context, fileID int64) error {
	return deleteChunksByFile(ctx, t.tx, fileID)
}

func (t *sqliteTx) SearchSymbols(ctx context.Context, projectID int64, name string, limit int) ([]*Chunk, error) {
	return searchSymbols(ctx, t.tx, projectID, name, limit)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return upsertEmbedding(ctx, t.tx, embedding)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return getEmbedding(ctx, t.tx, chunkID)
}

func (t *sqliteTx) DeleteEmbedding(ctx context.Context, chunkID int64) error {
	return deleteEmbedding(ctx, t.tx, chunkID)
}

func (t *sqliteTx) SearchVector(ctx context.Context, projectID int64, vector []float32, limit int, filters *SearchFilters) ([]VectorResult, error) {
	return searchVector(ctx, t.tx, projectID, vector, limit, filters)
}

func (t *sqliteTx) SearchText(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, t.tx, projectID, query, limit, filters)
}

func (t *sqliteTx) UpsertImport(ctx context.Context, imp *Import) error {
	return upsertImport(ctx, t.tx, imp)
}

func (t *sqliteTx) ListImportsByFile(ctx context.Context, fileID int64) ([]*Import, error) {
	return listImportsByFile(ctx, t.tx, fileID)
}

func (t *sqliteTx) DeleteImportsByFile(ctx context.Context, fileID int64) error {
	return deleteImportsByFile(ctx, t.tx, fileID)
}

func (t *sqliteTx) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return getStatus(ctx, t.tx, projectID)
}
