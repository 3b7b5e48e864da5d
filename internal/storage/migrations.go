package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CurrentSchemaVersion is the version a freshly migrated database ends up at.
const CurrentSchemaVersion = "1.0.0"

// A Migration moves the schema one version forward, or back via Down.
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations lists every schema migration, oldest first.
var AllMigrations = []Migration{
	{Version: "1.0.0", Up: schemaV1, Down: teardownV1},
}

// schemaV1 is assembled per table, in dependency order: projects own files,
// files own chunks and imports, chunks own embeddings and the FTS mirror.
const schemaV1 = ddlSchemaVersion + ddlProjects + ddlFiles + ddlChunks +
	ddlChunksFTS + ddlEmbeddings + ddlImports

const ddlSchemaVersion = `
CREATE TABLE IF NOT EXISTS schema_version (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const ddlProjects = `
CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	root_path TEXT NOT NULL UNIQUE,
	name TEXT,
	index_version TEXT NOT NULL,
	total_files INTEGER DEFAULT 0,
	total_chunks INTEGER DEFAULT 0,
	last_indexed_at TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_projects_root_path ON projects(root_path);
`

const ddlFiles = `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL,
	file_path TEXT NOT NULL,
	language TEXT,
	content_hash BLOB NOT NULL,
	size_bytes INTEGER,
	mod_time TIMESTAMP,
	parse_error TEXT,
	last_indexed_at TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(project_id, file_path),
	FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_files_project ON files(project_id);
CREATE INDEX IF NOT EXISTS idx_files_hash ON files(content_hash);
CREATE INDEX IF NOT EXISTS idx_files_language ON files(language);
CREATE INDEX IF NOT EXISTS idx_files_mod_time ON files(mod_time);
`

const ddlChunks = `
CREATE TABLE IF NOT EXISTS chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	chunk_type TEXT NOT NULL,
	content TEXT NOT NULL,
	content_hash BLOB NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	token_count INTEGER,
	metadata TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(file_id);
CREATE INDEX IF NOT EXISTS idx_chunks_symbol ON chunks(symbol);
CREATE INDEX IF NOT EXISTS idx_chunks_hash ON chunks(content_hash);
CREATE INDEX IF NOT EXISTS idx_chunks_type ON chunks(chunk_type);
CREATE UNIQUE INDEX IF NOT EXISTS idx_chunks_unique ON chunks(file_id, symbol, start_line);
`

// ddlChunksFTS mirrors chunks into an external-content FTS5 table. The
// three triggers keep the mirror aligned with every write path, including
// the ON CONFLICT upsert, so search code never touches chunks_fts directly.
const ddlChunksFTS = `
CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	symbol, content,
	content='chunks',
	content_rowid='id'
);
CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
	INSERT INTO chunks_fts(rowid, symbol, content)
	VALUES (new.id, new.symbol, new.content);
END;
CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, symbol, content)
	VALUES ('delete', old.id, old.symbol, old.content);
END;
CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
	INSERT INTO chunks_fts(chunks_fts, rowid, symbol, content)
	VALUES ('delete', old.id, old.symbol, old.content);
	INSERT INTO chunks_fts(rowid, symbol, content)
	VALUES (new.id, new.symbol, new.content);
END;
`

const ddlEmbeddings = `
CREATE TABLE IF NOT EXISTS embeddings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chunk_id INTEGER NOT NULL UNIQUE,
	vector BLOB NOT NULL,
	dimension INTEGER NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (chunk_id) REFERENCES chunks(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_embeddings_chunk ON embeddings(chunk_id);
CREATE INDEX IF NOT EXISTS idx_embeddings_provider ON embeddings(provider, model);
`

const ddlImports = `
CREATE TABLE IF NOT EXISTS imports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL,
	reference TEXT NOT NULL,
	import_type TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);
CREATE INDEX IF NOT EXISTS idx_imports_reference ON imports(reference);
`

// teardownV1 drops everything v1 created except schema_version, which must
// survive so the rollback itself can be recorded.
const teardownV1 = `
DROP TRIGGER IF EXISTS chunks_au;
DROP TRIGGER IF EXISTS chunks_ad;
DROP TRIGGER IF EXISTS chunks_ai;
DROP TABLE IF EXISTS imports;
DROP TABLE IF EXISTS embeddings;
DROP TABLE IF EXISTS chunks_fts;
DROP TABLE IF EXISTS chunks;
DROP TABLE IF EXISTS files;
DROP TABLE IF EXISTS projects;
`

// appliedVersion returns the newest recorded schema version, or nil when no
// migration has ever been applied (fresh database or empty version table).
func appliedVersion(ctx context.Context, db *sql.DB) (*semver.Version, error) {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking schema_version table: %w", err)
	}

	var raw string
	err = db.QueryRowContext(ctx,
		"SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&raw)
	if err == sql.ErrNoRows || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading schema_version: %w", err)
	}

	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("recorded schema version %q is not semver: %w", raw, err)
	}
	return v, nil
}

// ApplyMigrations brings the database up to CurrentSchemaVersion, applying
// every migration newer than the recorded version. Safe to call on every
// open; an up-to-date database is a no-op.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	applied, err := appliedVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range AllMigrations {
		target, err := semver.NewVersion(m.Version)
		if err != nil {
			return fmt.Errorf("migration %s has a bad version: %w", m.Version, err)
		}
		if applied != nil && !applied.LessThan(target) {
			continue
		}

		if _, err := db.ExecContext(ctx, m.Up); err != nil {
			return fmt.Errorf("applying migration %s: %w", m.Version, err)
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("recording migration %s: %w", m.Version, err)
		}
		applied = target
	}

	return nil
}

// RollbackMigration undoes the most recently applied migration and removes
// its version record. The schema_version table itself survives, so a later
// ApplyMigrations can re-apply from a clean slate.
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	var current string
	err := db.QueryRowContext(ctx,
		"SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&current)
	if err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	var down string
	found := false
	for _, m := range AllMigrations {
		if m.Version == current {
			down, found = m.Down, true
			break
		}
	}
	if !found {
		return fmt.Errorf("migration %s not found", current)
	}

	if _, err := db.ExecContext(ctx, down); err != nil {
		return fmt.Errorf("rolling back migration %s: %w", current, err)
	}
	if _, err := db.ExecContext(ctx,
		"DELETE FROM schema_version WHERE version = ?", current); err != nil {
		return fmt.Errorf("clearing migration record %s: %w", current, err)
	}

	return nil
}
