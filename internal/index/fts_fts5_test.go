//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5SearchProperties(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "f.md", Checksum: "1", UpdatedAt: time.Now()},
		[]PropertyRow{
			{Doc: "f.md", Path: "f.md/project.codename", Value: "aurora"},
			{Doc: "f.md", Path: "f.md/other", Value: "noise"},
		})

	hits, err := db.SearchProperties("aurora", 10)
	if err != nil {
		t.Fatalf("SearchProperties: %v", err)
	}
	if len(hits) != 1 || hits[0].Path != "f.md/project.codename" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestFTS5DeleteRemovesEntries(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "g.md", Checksum: "1", UpdatedAt: time.Now()},
		[]PropertyRow{{Doc: "g.md", Path: "g.md/k", Value: "uniquetoken"}})

	if err := db.DeleteDocument("g.md"); err != nil {
		t.Fatal(err)
	}
	hits, _ := db.SearchProperties("uniquetoken", 10)
	if len(hits) != 0 {
		t.Errorf("fts entries survived delete: %+v", hits)
	}
}
