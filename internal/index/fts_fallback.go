//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

// Without the sqlite_fts5 build tag property search falls back to LIKE
// matching over the properties table.

func initFTS(conn *sql.DB) error { return nil }

func ftsReplace(tx *sql.Tx, doc string, properties []PropertyRow) error { return nil }

func ftsDelete(tx *sql.Tx, doc string) {}

// SearchProperties performs a substring search over property paths and values.
func (db *DB) SearchProperties(q string, limit int) ([]PropertyHit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + q + "%"
	rows, err := db.conn.Query(`
		SELECT doc, path, value
		FROM properties
		WHERE path LIKE ? OR value LIKE ?
		ORDER BY path
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: like search: %w", err)
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
