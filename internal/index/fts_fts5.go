//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS properties_fts USING fts5(
			doc UNINDEXED,
			path,
			value,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsReplace(tx *sql.Tx, doc string, properties []PropertyRow) error {
	_, _ = tx.Exec(`DELETE FROM properties_fts WHERE doc = ?`, doc)
	for _, p := range properties {
		if _, err := tx.Exec(`INSERT INTO properties_fts (doc, path, value) VALUES (?, ?, ?)`,
			doc, p.Path, p.Value); err != nil {
			return fmt.Errorf("index: upsert fts: %w", err)
		}
	}
	return nil
}

func ftsDelete(tx *sql.Tx, doc string) {
	_, _ = tx.Exec(`DELETE FROM properties_fts WHERE doc = ?`, doc)
}

// SearchProperties performs an FTS5 search over property paths and values.
func (db *DB) SearchProperties(q string, limit int) ([]PropertyHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT doc, path, value
		FROM properties_fts
		WHERE properties_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("index: fts search: %w", err)
	}
	defer rows.Close()

	var out []PropertyHit
	for rows.Next() {
		var h PropertyHit
		if err := rows.Scan(&h.Doc, &h.Path, &h.Value); err != nil {
			return nil, fmt.Errorf("index: scan hit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
