package props

import "strings"

// docSuffix marks the boundary between the document segment of a global
// path and the dotted property path inside that document. A document
// path may itself contain slashes; the marker, not the last slash alone,
// decides where the property walk begins.
const docSuffix = ".md"

// Tree is a hierarchical mapping from path segment to either a nested
// Tree (folder) or a document's metadata mapping. Values are plain
// map[string]any at every level; the folder/document distinction is
// carried by the key's ".md" suffix.
type Tree map[string]any

// Insert stores a document's metadata at docPath ("folder/sub/doc.md"),
// creating intermediate folder nodes as needed.
func (t Tree) Insert(docPath string, meta map[string]any) {
	segments := strings.Split(docPath, "/")
	node := t
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(Tree)
		if !ok {
			child = Tree{}
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = meta
}

// Document returns the metadata mapping stored at docPath, or nil if
// any segment is missing.
func (t Tree) Document(docPath string) map[string]any {
	v, ok := t.walk(strings.Split(docPath, "/"))
	if !ok {
		return nil
	}
	meta, _ := v.(map[string]any)
	return meta
}

// Resolve addresses a value inside the tree. Paths containing the
// document-suffix marker ("…/doc.md/a.b") are split once at the marker:
// the prefix walks folder/document segments, the dotted suffix walks
// keys inside that document's metadata. Paths without the marker are
// treated as a pure folder/document walk and the terminal node is
// returned as-is. A missing segment at any depth yields (nil, false),
// never an error.
func (t Tree) Resolve(path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	marker := docSuffix + "/"
	if i := strings.Index(path, marker); i >= 0 {
		docPath := path[:i+len(docSuffix)]
		keyPath := path[i+len(marker):]
		doc := t.Document(docPath)
		if doc == nil {
			return nil, false
		}
		return walkKeys(doc, keyPath)
	}
	return t.walk(strings.Split(path, "/"))
}

func (t Tree) walk(segments []string) (any, bool) {
	var node any = map[string]any(t)
	for _, seg := range segments {
		m, ok := node.(map[string]any)
		if !ok {
			if tr, isTree := node.(Tree); isTree {
				m = map[string]any(tr)
			} else {
				return nil, false
			}
		}
		child, ok := m[seg]
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

// walkKeys resolves a dot-separated key sequence inside a metadata
// mapping. Empty path addresses the mapping itself.
func walkKeys(meta map[string]any, keyPath string) (any, bool) {
	if keyPath == "" {
		return meta, true
	}
	var node any = meta
	for _, key := range strings.Split(keyPath, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		child, ok := m[key]
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

// PathValue pairs an addressable path with the value stored there.
type PathValue struct {
	Path  string
	Value any
}

// FlattenDocument enumerates every addressable global path inside one
// document's metadata: the first key joins the document path with "/",
// deeper keys with "." (same boundary rule as path enumeration).
func FlattenDocument(docPath string, meta map[string]any) []PathValue {
	var out []PathValue
	flattenInto(&out, docPath, "/", meta)
	return out
}

func flattenInto(out *[]PathValue, parent, sep string, m map[string]any) {
	for _, key := range sortedKeys(m) {
		full := parent + sep + key
		*out = append(*out, PathValue{Path: full, Value: m[key]})
		if child, ok := m[key].(map[string]any); ok {
			flattenInto(out, full, ".", child)
		}
	}
}

// paths flattens the tree into the full set of addressable paths. The
// separator is "/" between folder levels and "." once the walk is
// inside a document's own metadata; the switch happens exactly at the
// folder→document boundary, so the first key inside a document is still
// joined with "/" ("folder/doc.md/key") and deeper keys with "."
// ("folder/doc.md/key.sub"). local forces dot separators throughout,
// which is the shape of paths relative to the active document.
func paths(node any, parent string, local bool) []string {
	m, ok := node.(map[string]any)
	if !ok {
		if tr, isTree := node.(Tree); isTree {
			m = map[string]any(tr)
		} else {
			return nil
		}
	}
	sep := "/"
	if local || strings.Contains(parent, docSuffix+"/") {
		sep = "."
	}
	var out []string
	for _, key := range sortedKeys(m) {
		full := key
		if parent != "" {
			full = parent + sep + key
		}
		out = append(out, full)
		switch m[key].(type) {
		case map[string]any, Tree:
			out = append(out, paths(m[key], full, local)...)
		}
	}
	return out
}
