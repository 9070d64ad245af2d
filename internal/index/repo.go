package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/livamd/liva/internal/apperr"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path      string
	Title     string
	Checksum  string
	Markers   int
	UpdatedAt time.Time
}

// PropertyRow is one flattened property path with its stringified value.
type PropertyRow struct {
	Doc   string
	Path  string
	Value string
}

// PropertyHit is one property search result.
type PropertyHit struct {
	Doc   string `json:"doc"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// FunctionRow is a saved custom function.
type FunctionRow struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// UpsertDocument replaces a document row and its flattened properties
// within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, properties []PropertyRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, checksum, markers, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			markers    = excluded.markers,
			updated_at = excluded.updated_at
	`, d.Path, d.Title, d.Checksum, d.Markers, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	// Replace properties: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM properties WHERE doc = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear properties: %w", err)
	}
	if len(properties) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO properties (doc, path, value) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare property insert: %w", err)
		}
		defer stmt.Close()
		for _, p := range properties {
			if _, err := stmt.Exec(d.Path, p.Path, p.Value); err != nil {
				return fmt.Errorf("index: insert property: %w", err)
			}
		}
	}

	if err := ftsReplace(tx, d.Path, properties); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDocument removes a document row, its properties, and FTS entries.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM properties WHERE doc = ?`, path); err != nil {
		return fmt.Errorf("index: delete properties: %w", err)
	}
	ftsDelete(tx, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for path ("" when unknown).
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, fmt.Errorf("index: scan checksum: %w", err)
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListDocuments returns every indexed document ordered by path.
func (db *DB) ListDocuments() ([]DocumentRow, error) {
	rows, err := db.conn.Query(`SELECT path, title, checksum, markers, updated_at FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var d DocumentRow
		if err := rows.Scan(&d.Path, &d.Title, &d.Checksum, &d.Markers, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("index: scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveFunction stores a named custom function. Saving an existing name
// returns apperr.ErrAlreadyExists.
func (db *DB) SaveFunction(name, code string) error {
	res, err := db.conn.Exec(`INSERT OR IGNORE INTO functions (name, code) VALUES (?, ?)`, name, code)
	if err != nil {
		return fmt.Errorf("index: save function: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.ErrAlreadyExists
	}
	return nil
}

// GetFunction returns the lambda source saved under name.
func (db *DB) GetFunction(name string) (string, error) {
	var code string
	err := db.conn.QueryRow(`SELECT code FROM functions WHERE name = ?`, name).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("index: get function: %w", err)
	}
	return code, nil
}

// DeleteFunction removes a saved function.
func (db *DB) DeleteFunction(name string) error {
	if _, err := db.conn.Exec(`DELETE FROM functions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("index: delete function: %w", err)
	}
	return nil
}

// ListFunctions returns all saved functions ordered by name.
func (db *DB) ListFunctions() ([]FunctionRow, error) {
	rows, err := db.conn.Query(`SELECT name, code FROM functions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("index: list functions: %w", err)
	}
	defer rows.Close()

	var out []FunctionRow
	for rows.Next() {
		var f FunctionRow
		if err := rows.Scan(&f.Name, &f.Code); err != nil {
			return nil, fmt.Errorf("index: scan function: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SeedFunctions inserts config-declared functions that are not already
// saved. Existing names keep their stored code.
func (db *DB) SeedFunctions(fns []FunctionRow) error {
	for _, f := range fns {
		if err := db.SaveFunction(f.Name, f.Code); err != nil && !errors.Is(err, apperr.ErrAlreadyExists) {
			return err
		}
	}
	return nil
}
