// Package storage persists indexed code in a single SQLite database file.
//
// One database holds one or more projects. Each project row owns file rows,
// each file owns the chunk and import rows extracted from it, and each chunk
// may own one embedding row. Chunk text is mirrored into an FTS5 table by
// triggers, so every write path keeps full-text search current without the
// callers knowing the mirror exists. Schema migrations run automatically
// when the database is opened.
//
// Open a database and write through the Storage interface:
//
//	db, err := storage.NewSQLiteStorage(dbPath)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	project := &storage.Project{RootPath: root, Name: "api", IndexVersion: storage.CurrentSchemaVersion}
//	if err := db.CreateProject(ctx, project); err != nil {
//		return err
//	}
//
// Re-indexing a file should replace its chunks atomically. BeginTx returns
// a Tx that satisfies the full Storage interface, so the whole swap runs as
// one unit:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Rollback()
//
//	if err := tx.UpsertFile(ctx, file); err != nil {
//		return err
//	}
//	if err := tx.DeleteChunksByFile(ctx, file.ID); err != nil {
//		return err
//	}
//	for i := range rows {
//		if err := tx.UpsertChunk(ctx, rows[i]); err != nil {
//			return err
//		}
//	}
//	return tx.Commit()
//
// Incremental indexing compares content hashes before doing any of that:
// GetFileByHash (or GetFile plus a ContentHash comparison) tells the caller
// whether a file changed since it was last indexed.
//
// Three query shapes cover retrieval. SearchSymbols matches chunk symbols
// by prefix for go-to-definition style lookup. SearchText ranks chunks with
// BM25 over the FTS5 mirror. SearchVector ranks chunks by cosine similarity
// between a query vector and stored embeddings:
//
//	results, err := db.SearchVector(ctx, project.ID, queryVector, 10, &storage.SearchFilters{
//		Languages:    []string{"ruby"},
//		MinRelevance: 0.5,
//	})
//
// All three accept the same SearchFilters for narrowing by language, chunk
// type, file path glob and recognized framework macros; the macro filters
// probe the chunk metadata JSON with json_extract.
//
// Chunk rows store each chunk's metadata map as a JSON column, so
// language-specific facts (superclass, comment role, framework macros)
// survive round trips without per-language schema changes. FromTypesChunk
// and ToTypesChunk convert between the extracted and stored forms.
//
// Two build configurations select the SQLite driver. The sqlite_vec tag
// builds against github.com/mattn/go-sqlite3 with the sqlite-vec extension,
// which evaluates vector distance inside SQL; it needs cgo. The purego tag
// builds against modernc.org/sqlite and ranks vectors in Go, trading speed
// for a toolchain-only build. The storage API is identical under both.
package storage
