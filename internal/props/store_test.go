package props_test

import (
	"testing"

	"github.com/livamd/liva/internal/props"
	"github.com/livamd/liva/internal/storage"
)

func testStore(t *testing.T) (*props.Store, storage.Provider) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	writeDoc(t, store, "A.md", "---\nx: 1\nnested:\n  d: 9\n---\nbody\n")
	writeDoc(t, store, "folder/B.md", "---\ny: 2\n---\nbody\n")

	ps := props.NewStore(store, nil)
	if err := ps.Refresh(); err != nil {
		t.Fatal(err)
	}
	return ps, store
}

func writeDoc(t *testing.T, store storage.Provider, path, content string) {
	t.Helper()
	if err := store.Write(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
}

func TestGetProperty_LocalAndGlobal(t *testing.T) {
	ps, _ := testStore(t)
	ps.SetActiveDocument("A.md")

	// Local dotted path against the active document.
	if v, ok := ps.GetProperty("x"); !ok || v != 1 {
		t.Errorf("get x = %v, %v; want 1, true", v, ok)
	}
	if v, ok := ps.GetProperty("nested.d"); !ok || v != 9 {
		t.Errorf("get nested.d = %v, %v; want 9, true", v, ok)
	}
	// Global path into another document.
	if v, ok := ps.GetProperty("folder/B.md/y"); !ok || v != 2 {
		t.Errorf("get folder/B.md/y = %v, %v; want 2, true", v, ok)
	}
	// Missing.
	if _, ok := ps.GetProperty("missing"); ok {
		t.Error("missing path should not resolve")
	}
	if _, ok := ps.GetProperty(""); ok {
		t.Error("empty path should not resolve")
	}
}

func TestGetProperty_NoActiveDocument(t *testing.T) {
	ps, _ := testStore(t)
	// Without context, bare keys do not resolve locally.
	if _, ok := ps.GetProperty("x"); ok {
		t.Error("bare key should not resolve without an active document")
	}
	// Global paths still work.
	if v, ok := ps.GetProperty("A.md/x"); !ok || v != 1 {
		t.Errorf("get A.md/x = %v, %v; want 1, true", v, ok)
	}
}

func TestSetActiveDocument_SwitchesContext(t *testing.T) {
	ps, _ := testStore(t)
	ps.SetActiveDocument("A.md")
	if ps.ActiveDocument() != "A.md" {
		t.Fatalf("active = %q", ps.ActiveDocument())
	}
	ps.SetActiveDocument("folder/B.md")
	if _, ok := ps.GetProperty("x"); ok {
		t.Error("x should no longer resolve locally after context switch")
	}
	if v, ok := ps.GetProperty("y"); !ok || v != 2 {
		t.Errorf("get y = %v, %v; want 2, true", v, ok)
	}
}

func TestEnumeratePaths(t *testing.T) {
	ps, _ := testStore(t)
	ps.SetActiveDocument("A.md")

	local := ps.EnumerateLocalPaths()
	wantLocal := map[string]bool{"x": true, "nested": true, "nested.d": true}
	if len(local) != len(wantLocal) {
		t.Fatalf("local paths = %v", local)
	}
	for _, p := range local {
		if !wantLocal[p] {
			t.Errorf("unexpected local path %q", p)
		}
	}

	all := ps.EnumerateAllPaths()
	seen := map[string]bool{}
	for _, p := range all {
		seen[p] = true
	}
	for _, want := range []string{"x", "nested.d", "A.md/x", "A.md/nested.d", "folder/B.md/y"} {
		if !seen[want] {
			t.Errorf("missing path %q in %v", want, all)
		}
	}
}

func TestFindPaths(t *testing.T) {
	ps, _ := testStore(t)
	ps.SetActiveDocument("A.md")

	got := ps.FindPathsContaining("nested")
	if len(got) == 0 {
		t.Fatal("expected matches for nested")
	}
	for _, p := range got {
		if p != "nested" && p != "nested.d" && p != "A.md/nested" && p != "A.md/nested.d" {
			t.Errorf("unexpected match %q", p)
		}
	}

	got = ps.FindPathsStartingWith("folder/")
	if len(got) != 2 {
		t.Fatalf("FindPathsStartingWith(folder/) = %v", got)
	}
}

func TestHasChanged(t *testing.T) {
	ps, _ := testStore(t)
	ps.SetActiveDocument("A.md")

	same := map[string]any{"x": 1, "nested": map[string]any{"d": 9}}
	if ps.HasChanged(same) {
		t.Error("identical metadata reported as changed")
	}
	if !ps.HasChanged(map[string]any{"x": 2, "nested": map[string]any{"d": 9}}) {
		t.Error("changed value not detected")
	}
	if !ps.HasChanged(map[string]any{"x": 1}) {
		t.Error("removed key not detected")
	}
}

func TestTemporaryOverride(t *testing.T) {
	ps, _ := testStore(t)
	ps.SetActiveDocument("A.md")

	ps.TemporaryOverride("x", 42)
	if v, _ := ps.GetProperty("x"); v != 42 {
		t.Errorf("override not applied, got %v", v)
	}
	ps.ClearOverrides()
	if v, _ := ps.GetProperty("x"); v != 1 {
		t.Errorf("override not cleared, got %v", v)
	}
}

func TestRefresh_PicksUpNewDocuments(t *testing.T) {
	ps, store := testStore(t)
	writeDoc(t, store, "new.md", "---\nfresh: ready\n---\n")
	if _, ok := ps.GetProperty("new.md/fresh"); ok {
		t.Fatal("path resolved before refresh")
	}
	if err := ps.Refresh(); err != nil {
		t.Fatal(err)
	}
	if v, ok := ps.GetProperty("new.md/fresh"); !ok || v != "ready" {
		t.Errorf("new.md/fresh = %v, %v", v, ok)
	}
}
