// Package engine orchestrates live-variable recomputation: it reacts to
// document events, runs whole-document recompute passes, and offers the
// authoring operations (insert, edit, evaluate) the API and MCP
// surfaces expose.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/livamd/liva/internal/index"
	"github.com/livamd/liva/internal/parser"
	"github.com/livamd/liva/internal/props"
	"github.com/livamd/liva/internal/query"
	"github.com/livamd/liva/internal/render"
	"github.com/livamd/liva/internal/storage"
)

// Config carries the rendering settings the engine needs.
type Config struct {
	Delims        query.Delimiters
	Render        render.Options
	InlineEditing bool
}

// Engine ties the vault, the property store, the index, and the
// renderer together. Recompute passes are serialized per document path:
// overlapping triggers for the same document queue behind each other,
// and each pass reads, rewrites, and writes back atomically, so marker
// spans can never interleave.
type Engine struct {
	store    storage.Provider
	props    *props.Store
	db       *index.DB
	renderer *render.Renderer
	logger   *slog.Logger
	cfg      Config

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// New creates an engine. notifier may be nil (notices dropped).
func New(store storage.Provider, ps *props.Store, db *index.DB, cfg Config, notifier render.Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	eval := &query.Evaluator{
		Store:  ps,
		Delims: cfg.Delims,
		Lookup: func(name string) (string, bool) {
			code, err := db.GetFunction(name)
			return code, err == nil
		},
	}
	return &Engine{
		store: store,
		props: ps,
		db:    db,
		renderer: &render.Renderer{
			Eval:     eval,
			Opts:     cfg.Render,
			Notifier: notifier,
		},
		logger:   logger,
		cfg:      cfg,
		docLocks: map[string]*sync.Mutex{},
	}
}

// Props returns the underlying property store.
func (e *Engine) Props() *props.Store { return e.props }

// Renderer returns the renderer (for prose interpolation endpoints).
func (e *Engine) Renderer() *render.Renderer { return e.renderer }

func (e *Engine) lockDoc(path string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.docLocks[path]
	if !ok {
		l = &sync.Mutex{}
		e.docLocks[path] = l
	}
	return l
}

// Recompute runs a full placeholder pass over one document and writes
// the result back iff anything changed. Returns whether the document
// was rewritten.
func (e *Engine) Recompute(ctx context.Context, path string) (bool, error) {
	l := e.lockDoc(path)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	data, err := e.store.Read(path)
	if err != nil {
		return false, fmt.Errorf("engine: read %s: %w", path, err)
	}
	before := string(data)
	after := e.renderer.Recompute(before)
	if after == before {
		return false, nil
	}
	if err := e.store.Write(path, []byte(after)); err != nil {
		return false, fmt.Errorf("engine: write %s: %w", path, err)
	}
	e.logger.Debug("engine: recomputed", slog.String("path", path))
	return true, nil
}

// SetActiveDocument handles an active-context switch: refresh the
// property tree, rederive the local view, then recompute the document.
func (e *Engine) SetActiveDocument(ctx context.Context, path string) error {
	if err := e.props.Refresh(); err != nil {
		return fmt.Errorf("engine: refresh properties: %w", err)
	}
	e.props.SetActiveDocument(path)
	_, err := e.Recompute(ctx, path)
	return err
}

// HandleDocumentEvent is the watcher callback: a created or updated
// document refreshes the tree and, when its metadata actually changed
// (or it is not the active document), triggers a recompute. Deletes
// only refresh the tree.
func (e *Engine) HandleDocumentEvent(ctx context.Context, kind, path string) {
	switch kind {
	case "deleted":
		if err := e.props.Refresh(); err != nil {
			e.logger.Warn("engine: refresh failed", slog.String("error", err.Error()))
		}
		return
	case "created", "updated":
	default:
		return
	}

	if path == e.props.ActiveDocument() {
		data, err := e.store.Read(path)
		if err != nil {
			e.logger.Warn("engine: read failed", slog.String("path", path), slog.String("error", err.Error()))
			return
		}
		newMeta := parser.Frontmatter(data)
		if !e.props.HasChanged(newMeta) {
			return
		}
	}
	if err := e.props.Refresh(); err != nil {
		e.logger.Warn("engine: refresh failed", slog.String("error", err.Error()))
		return
	}
	if _, err := e.Recompute(ctx, path); err != nil {
		e.logger.Warn("engine: recompute failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// RecomputeAll runs a recompute pass over every document in the vault.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	metas, err := e.store.List("")
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		ok, err := e.Recompute(ctx, m.Path)
		if err != nil {
			e.logger.Warn("engine: recompute failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// EvaluateQuery parses and evaluates a query string in the current
// context, returning both the raw value and its rendered form.
func (e *Engine) EvaluateQuery(queryStr string) (any, string, error) {
	vq, err := query.Parse(queryStr)
	if err != nil {
		return nil, "", err
	}
	v, err := e.renderer.Eval.Evaluate(vq)
	if err != nil {
		return nil, "", err
	}
	rendered, _ := e.renderer.TryCompute(queryStr)
	return v, rendered, nil
}

// BuildPlaceholder computes the query's current value and returns the
// canonical marker text ready for insertion at a cursor.
func (e *Engine) BuildPlaceholder(queryStr string) (string, error) {
	rendered, ok := e.renderer.TryCompute(queryStr)
	if !ok {
		return "", fmt.Errorf("engine: cannot compute query %q", props.Truncate(queryStr, 50))
	}
	return render.Placeholder(queryStr, rendered) + "\n", nil
}

// EditPlaceholderAt replaces the placeholder surrounding cursor in the
// given document with a freshly computed one for newQuery. The exact
// span is located by scanning backward for the nearest unclosed open
// tag and forward for its end tag.
func (e *Engine) EditPlaceholderAt(ctx context.Context, path string, cursor int, newQuery string) error {
	if !e.cfg.InlineEditing {
		return fmt.Errorf("engine: inline editing is disabled")
	}
	l := e.lockDoc(path)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := e.store.Read(path)
	if err != nil {
		return fmt.Errorf("engine: read %s: %w", path, err)
	}
	text := string(data)
	span, ok := render.FindSpanAt(text, cursor)
	if !ok {
		return fmt.Errorf("engine: no placeholder at offset %d in %s", cursor, path)
	}
	rendered, ok := e.renderer.TryCompute(newQuery)
	if !ok {
		return fmt.Errorf("engine: cannot compute query %q", props.Truncate(newQuery, 50))
	}
	updated := render.ReplaceSpan(text, span, newQuery, rendered)
	if err := e.store.Write(path, []byte(updated)); err != nil {
		return fmt.Errorf("engine: write %s: %w", path, err)
	}
	return nil
}
