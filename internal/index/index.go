// Package index provides the SQLite-backed derived cache over the
// vault: per-document checksums for change detection, a flattened
// property path/value table for autocomplete search (FTS5 when built
// with the sqlite_fts5 tag), and the custom-function registry. The
// files themselves stay the source of truth; the index is rebuildable
// at any time.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	markers    INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS properties (
	doc   TEXT NOT NULL,
	path  TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT '',
	UNIQUE(doc, path)
);

CREATE INDEX IF NOT EXISTS idx_properties_doc  ON properties(doc);
CREATE INDEX IF NOT EXISTS idx_properties_path ON properties(path);

CREATE TABLE IF NOT EXISTS functions (
	name TEXT PRIMARY KEY,
	code TEXT NOT NULL
);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
