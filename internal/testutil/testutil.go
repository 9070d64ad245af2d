// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/livamd/liva/internal/index"
	"github.com/livamd/liva/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "liva-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteDoc writes a document with the given frontmatter lines and body.
func WriteDoc(t *testing.T, store storage.Provider, path string, frontmatter map[string]any, body string) {
	t.Helper()
	content := "---\n"
	for k, v := range frontmatter {
		content += fmt.Sprintf("%s: %v\n", k, v)
	}
	content += "---\n" + body
	if err := store.Write(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
}
