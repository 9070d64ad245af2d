package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/livamd/liva/internal/engine"
	"github.com/livamd/liva/internal/index"
	"github.com/livamd/liva/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(eng *engine.Engine, store storage.Provider, db index.PropertyIndex, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(eng, store, db)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents.
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.PutDocument)

	// Context switch.
	r.Post("/active", h.SetActive)

	// Properties.
	r.Get("/properties", h.GetProperty)
	r.Get("/properties/paths", h.ListPaths)
	r.Get("/properties/search", h.SearchProperties)
	r.Put("/overrides", h.PutOverride)

	// Queries and rendering.
	r.Post("/query", h.EvaluateQuery)
	r.Post("/recompute", h.Recompute)
	r.Post("/placeholders", h.BuildPlaceholder)
	r.Post("/placeholders/edit", h.EditPlaceholder)
	r.Post("/interpolate", h.Interpolate)

	// Custom functions.
	r.Get("/functions", h.ListFunctions)
	r.Post("/functions", h.SaveFunction)
	r.Delete("/functions/{name}", h.DeleteFunction)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
