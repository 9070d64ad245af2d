package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/livamd/liva/internal/apperr"
	"github.com/livamd/liva/internal/engine"
	"github.com/livamd/liva/internal/index"
	"github.com/livamd/liva/internal/parser"
	"github.com/livamd/liva/internal/props"
	"github.com/livamd/liva/internal/storage"
)

// Handler holds API route handlers.
type Handler struct {
	eng   *engine.Engine
	store storage.Provider
	db    index.PropertyIndex
}

// NewHandler creates a new Handler.
func NewHandler(eng *engine.Engine, store storage.Provider, db index.PropertyIndex) *Handler {
	return &Handler{eng: eng, store: store, db: db}
}

// docPath extracts the document path from the URL (everything after the
// route prefix). Supports encoded slashes from OpenAPI clients.
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func decodeBody[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return req, false
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return req, false
	}
	return req, true
}

// ListDocuments handles GET /api/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.ListDocuments()
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]DocumentListItem, len(rows))
	for i, d := range rows {
		items[i] = DocumentListItem{
			Path:      d.Path,
			Title:     d.Title,
			Checksum:  d.Checksum,
			Markers:   d.Markers,
			UpdatedAt: d.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: len(items)})
}

// GetDocument handles GET /api/documents/*.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	data, err := h.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get document failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	res, err := parser.Parse(data)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	cs, _ := h.db.GetChecksum(path)
	writeJSON(w, http.StatusOK, DocumentDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    cs,
		Markers:     res.Markers,
		Frontmatter: res.Frontmatter,
	})
}

// PutDocument handles PUT /api/documents/*: whole-document raw text replace.
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := h.store.Write(path, []byte(body.Content)); err != nil {
		slog.Error("put document failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// SetActive handles POST /api/active: active-document context switch.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody[ActiveRequest](w, r)
	if !ok {
		return
	}
	if err := h.eng.SetActiveDocument(r.Context(), req.Path); err != nil {
		slog.Error("set active failed", slog.String("path", req.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": req.Path})
}

// GetProperty handles GET /api/properties?path=…
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	v, ok := h.eng.Props().GetProperty(path)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":  path,
		"value": v,
		"text":  props.Stringify(v),
	})
}

// ListPaths handles GET /api/properties/paths?contains=…&prefix=…
func (h *Handler) ListPaths(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var paths []string
	switch {
	case q.Has("prefix"):
		paths = h.eng.Props().FindPathsStartingWith(q.Get("prefix"))
	default:
		paths = h.eng.Props().FindPathsContaining(q.Get("contains"))
	}
	if paths == nil {
		paths = []string{}
	}
	writeJSON(w, http.StatusOK, PathsResponse{Paths: paths})
}

// SearchProperties handles GET /api/properties/search?q=…&limit=…
func (h *Handler) SearchProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.db.SearchProperties(q, limit)
	if err != nil {
		slog.Error("property search failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if hits == nil {
		hits = []index.PropertyHit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

// EvaluateQuery handles POST /api/query.
func (h *Handler) EvaluateQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody[QueryRequest](w, r)
	if !ok {
		return
	}
	value, rendered, err := h.eng.EvaluateQuery(req.Query)
	if err != nil {
		if apperr.IsParseError(err) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Value: value, Rendered: rendered})
}

// Recompute handles POST /api/recompute.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	var req RecomputeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
			return
		}
	}
	if req.Path == "" {
		n, err := h.eng.RecomputeAll(r.Context())
		if err != nil {
			slog.Error("recompute all failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			return
		}
		writeJSON(w, http.StatusOK, RecomputeResponse{Changed: n})
		return
	}
	changed, err := h.eng.Recompute(r.Context(), req.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("recompute failed", slog.String("path", req.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	n := 0
	if changed {
		n = 1
	}
	writeJSON(w, http.StatusOK, RecomputeResponse{Changed: n})
}

// PutOverride handles PUT /api/overrides: session-scoped shadow write.
func (h *Handler) PutOverride(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody[OverrideRequest](w, r)
	if !ok {
		return
	}
	h.eng.Props().TemporaryOverride(req.Path, req.Value)
	writeJSON(w, http.StatusOK, map[string]string{"path": req.Path})
}

// BuildPlaceholder handles POST /api/placeholders.
func (h *Handler) BuildPlaceholder(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody[PlaceholderRequest](w, r)
	if !ok {
		return
	}
	snippet, err := h.eng.BuildPlaceholder(req.Query)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, PlaceholderResponse{Snippet: snippet})
}

// EditPlaceholder handles POST /api/placeholders/edit.
func (h *Handler) EditPlaceholder(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody[EditPlaceholderRequest](w, r)
	if !ok {
		return
	}
	if err := h.eng.EditPlaceholderAt(r.Context(), req.Path, req.Cursor, req.Query); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": req.Path})
}

// Interpolate handles POST /api/interpolate: plain delimiter substitution.
func (h *Handler) Interpolate(w http.ResponseWriter, r *http.Request) {
	var req InterpolateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	writeJSON(w, http.StatusOK, InterpolateResponse{Text: h.eng.Renderer().Interpolate(req.Text)})
}

// ListFunctions handles GET /api/functions.
func (h *Handler) ListFunctions(w http.ResponseWriter, r *http.Request) {
	fns, err := h.db.ListFunctions()
	if err != nil {
		slog.Error("list functions failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if fns == nil {
		fns = []index.FunctionRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"functions": fns})
}

// SaveFunction handles POST /api/functions.
func (h *Handler) SaveFunction(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody[SaveFunctionRequest](w, r)
	if !ok {
		return
	}
	if err := h.db.SaveFunction(req.Name, req.Code); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("already exists"))
			return
		}
		slog.Error("save function failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

// DeleteFunction handles DELETE /api/functions/{name}.
func (h *Handler) DeleteFunction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	if err := h.db.DeleteFunction(name); err != nil {
		slog.Error("delete function failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}
