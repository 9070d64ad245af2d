// Package props maintains the hierarchical property store backing live
// variables: frontmatter metadata of every vault document arranged as a
// tree, a derived local view for the active document, and path-addressed
// lookups across both.
package props

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/livamd/liva/internal/parser"
	"github.com/livamd/liva/internal/storage"
)

// Store holds the vault-wide property tree plus the derived state for
// the current active document. All mutating operations rebuild into
// fresh structures and swap under the lock; readers never observe a
// half-updated tree.
type Store struct {
	provider storage.Provider
	logger   *slog.Logger

	mu         sync.RWMutex
	tree       Tree
	activeDoc  string
	local      map[string]any
	localPaths []string
	allPaths   []string
	overrides  map[string]any
}

// NewStore creates a property store over the given vault provider. Call
// Refresh before the first lookup.
func NewStore(provider storage.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		provider:  provider,
		logger:    logger,
		tree:      Tree{},
		overrides: map[string]any{},
	}
}

// Refresh rebuilds the whole property tree by walking the vault and
// reading each document's frontmatter. O(number of documents); the new
// tree replaces the old one atomically.
func (s *Store) Refresh() error {
	metas, err := s.provider.List("")
	if err != nil {
		return err
	}
	tree := Tree{}
	for _, m := range metas {
		data, err := s.provider.Read(m.Path)
		if err != nil {
			s.logger.Warn("props: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		fm := parser.Frontmatter(data)
		if fm == nil {
			fm = map[string]any{}
		}
		tree.Insert(m.Path, fm)
	}

	s.mu.Lock()
	s.tree = tree
	s.rederiveLocked()
	s.mu.Unlock()
	return nil
}

// SetActiveDocument switches the local-property context to the document
// at path and recomputes the cached path indexes. Must be called on
// every context switch before local lookups are trusted.
func (s *Store) SetActiveDocument(path string) {
	s.mu.Lock()
	s.activeDoc = path
	s.rederiveLocked()
	s.mu.Unlock()
}

// ActiveDocument returns the current context document path.
func (s *Store) ActiveDocument() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeDoc
}

// rederiveLocked recomputes the local view and both path indexes from
// the current tree. Caller holds the write lock.
func (s *Store) rederiveLocked() {
	s.local = nil
	if s.activeDoc != "" {
		s.local = s.tree.Document(s.activeDoc)
	}
	s.localPaths = paths(s.local, "", true)
	s.allPaths = append(append([]string{}, s.localPaths...), paths(s.tree, "", false)...)
}

// GetProperty resolves a local or global path. Overrides shadow
// everything; a local-style dotted path is tried against the active
// document's metadata first; anything else walks the global tree.
// Absence is signaled by (nil, false), never an error.
func (s *Store) GetProperty(path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.overrides[path]; ok {
		return v, true
	}
	if !strings.Contains(path, "/") && s.local != nil {
		if v, ok := walkKeys(s.local, path); ok {
			return v, true
		}
	}
	return s.tree.Resolve(path)
}

// LocalProperties returns the active document's metadata mapping (may
// be nil when no document is active or it has no frontmatter).
func (s *Store) LocalProperties() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local
}

// EnumerateLocalPaths returns every dotted path addressable inside the
// active document's metadata.
func (s *Store) EnumerateLocalPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.localPaths...)
}

// EnumerateAllPaths returns the local paths followed by every global
// path in the tree.
func (s *Store) EnumerateAllPaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.allPaths...)
}

// FindPathsContaining returns the addressable paths whose string form
// contains substr (case-sensitive). Empty substr returns the full set.
func (s *Store) FindPathsContaining(substr string) []string {
	return s.filterPaths(func(p string) bool {
		return substr == "" || strings.Contains(p, substr)
	})
}

// FindPathsStartingWith returns the addressable paths whose string form
// starts with prefix (case-sensitive). Empty prefix returns the full set.
func (s *Store) FindPathsStartingWith(prefix string) []string {
	return s.filterPaths(func(p string) bool {
		return prefix == "" || strings.HasPrefix(p, prefix)
	})
}

func (s *Store) filterPaths(keep func(string) bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, p := range s.allPaths {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// HasChanged reports whether newMeta differs structurally from the
// active document's cached metadata: a different key count, or any key
// whose value no longer serializes identically.
func (s *Store) HasChanged(newMeta map[string]any) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.local) != len(newMeta) {
		return true
	}
	for k, nv := range newMeta {
		if !Equal(s.local[k], nv) {
			return true
		}
	}
	return false
}

// TemporaryOverride shadows the stored value at path for the rest of
// the process lifetime. Overrides are never persisted and vanish on
// restart.
func (s *Store) TemporaryOverride(path string, value any) {
	s.mu.Lock()
	s.overrides[path] = value
	s.mu.Unlock()
	s.logger.Debug("props: temporary override", slog.String("path", path))
}

// ClearOverrides drops all session overrides.
func (s *Store) ClearOverrides() {
	s.mu.Lock()
	s.overrides = map[string]any{}
	s.mu.Unlock()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
