package api

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// QueryRequest asks for one query evaluation in the current context.
type QueryRequest struct {
	Query string `json:"query"`
}

// Validate validates the query request.
func (r QueryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required),
	)
}

// QueryResponse carries the computed value and its rendered form.
type QueryResponse struct {
	Value    any    `json:"value"`
	Rendered string `json:"rendered"`
}

// ActiveRequest switches the active-document context.
type ActiveRequest struct {
	Path string `json:"path"`
}

// Validate validates the active request.
func (r ActiveRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
	)
}

// RecomputeRequest triggers a recompute pass. Empty path means the
// whole vault.
type RecomputeRequest struct {
	Path string `json:"path"`
}

// RecomputeResponse reports how many documents were rewritten.
type RecomputeResponse struct {
	Changed int `json:"changed"`
}

// OverrideRequest sets a session-scoped property override.
type OverrideRequest struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Validate validates the override request.
func (r OverrideRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
	)
}

// PlaceholderRequest builds a canonical marker snippet for insertion.
type PlaceholderRequest struct {
	Query string `json:"query"`
}

// Validate validates the placeholder request.
func (r PlaceholderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required),
	)
}

// PlaceholderResponse carries the insertable snippet.
type PlaceholderResponse struct {
	Snippet string `json:"snippet"`
}

// EditPlaceholderRequest replaces the placeholder under a cursor offset.
type EditPlaceholderRequest struct {
	Path   string `json:"path"`
	Cursor int    `json:"cursor"`
	Query  string `json:"query"`
}

// Validate validates the edit request.
func (r EditPlaceholderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
		validation.Field(&r.Cursor, validation.Min(0)),
		validation.Field(&r.Query, validation.Required),
	)
}

// SaveFunctionRequest registers a named custom function.
type SaveFunctionRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Validate validates the function request: the code must be an arrow
// lambda, the only form the evaluator compiles.
func (r SaveFunctionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Code, validation.Required, validation.By(func(v any) error {
			if s, _ := v.(string); !strings.Contains(s, "=>") {
				return validation.NewError("validation_lambda", "must be an arrow lambda")
			}
			return nil
		})),
	)
}

// InterpolateRequest substitutes delimiter spans in free text.
type InterpolateRequest struct {
	Text string `json:"text"`
}

// InterpolateResponse carries the substituted text.
type InterpolateResponse struct {
	Text string `json:"text"`
}

// DocumentDetail is the response payload for a single document.
type DocumentDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Markers     int            `json:"markers"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Markers   int       `json:"markers"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents"`
	Total     int                `json:"total"`
}

// PathsResponse wraps a path enumeration result.
type PathsResponse struct {
	Paths []string `json:"paths"`
}
