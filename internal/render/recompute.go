package render

import (
	"fmt"
	"html"
	"regexp"

	"github.com/livamd/liva/internal/props"
	"github.com/livamd/liva/internal/query"
)

// anyMarkerRe matches one placeholder of any generation. Group 1 is a
// legacy id key, group 2 an escaped query from a self-closing v2 open
// tag, group 3 an escaped query from a canonical open tag. A single
// combined scan guarantees every occurrence is recomputed exactly once
// per pass, so a failing placeholder produces exactly one notification.
var anyMarkerRe = regexp.MustCompile(`(?s)` +
	`<span id="([^"]+)"/>.*?<span type="end"/>` +
	`|<span query="([^"]+)"/>.*?<span type="end"/>` +
	`|<span query="([^"]+?)"></span>.*?<span type="end"></span>`)

// Options control value decoration during rendering.
type Options struct {
	HighlightText    bool
	HighlightDynamic bool
	DynamicColor     string
}

// Notifier receives fire-and-forget user-visible notices. Must not block.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(string)

func (f NotifierFunc) Notify(message string) { f(message) }

// Renderer runs recompute passes over raw document text. A failed
// placeholder degrades to its error rendering and one notification;
// the pass always continues with the remaining placeholders.
type Renderer struct {
	Eval     *query.Evaluator
	Opts     Options
	Notifier Notifier
}

func (r *Renderer) notify(msg string) {
	if r.Notifier != nil {
		r.Notifier.Notify(msg)
	}
}

// Recompute re-evaluates every placeholder in text and substitutes
// delimiter spans inside fenced code blocks. The result is the full
// rewritten document; callers write it back in one atomic operation or
// not at all. Legacy and self-closing markers are rewritten in
// canonical form; recomputing unchanged data is byte-stable.
func (r *Renderer) Recompute(text string) string {
	text = r.substituteCodeBlocks(text)
	return replaceEach(text, anyMarkerRe, func(m []string) string {
		switch {
		case m[1] != "":
			return r.recomputeLegacy(m[1])
		case m[2] != "":
			return r.recomputeQueried(m[2])
		default:
			return r.recomputeQueried(m[3])
		}
	})
}

// recomputeLegacy handles v1 id-addressed markers: the key is looked up
// directly as a property path, not parsed as a query. A hit migrates
// the marker to canonical get(key) form; a miss keeps the legacy form
// with the fixed error token, so repeated passes stay byte-stable
// instead of silently turning the error into an empty value.
func (r *Renderer) recomputeLegacy(key string) string {
	v, ok := r.Eval.Store.GetProperty(key)
	if !ok || v == nil {
		r.notify(fmt.Sprintf("Failed to get value of variable %s", props.Truncate(key, 50)))
		return fmt.Sprintf(`<span id="%s"/>%s<span type="end"/>`, key, legacyErrorSpan)
	}
	return r.recomputeQueried(EscapeQuery(fmt.Sprintf("get(%s)", key)))
}

// recomputeQueried handles v2/v3 markers: decode the escaped query,
// evaluate, and rewrite the whole span in canonical form with the
// original escaped query preserved byte-for-byte.
func (r *Renderer) recomputeQueried(escaped string) string {
	rendered, ok := r.TryCompute(UnescapeQuery(escaped))
	if !ok {
		r.notify(fmt.Sprintf("Failed to get value of query %q", props.Truncate(escaped, 50)))
		return rawPlaceholder(escaped, errorSpan("Invalid Query"))
	}
	return rawPlaceholder(escaped, rendered)
}

// rawPlaceholder builds a canonical marker without re-escaping: used on
// the recompute path where the escaped query must survive unchanged.
func rawPlaceholder(escapedQuery, rendered string) string {
	return fmt.Sprintf(`<span query="%s"></span>%s%s`, escapedQuery, rendered, endTag)
}

// TryCompute parses and evaluates a decoded query, returning the
// decorated rendered value. ok is false when the query cannot be
// parsed or evaluated; the caller chooses the error rendering.
func (r *Renderer) TryCompute(queryStr string) (string, bool) {
	vq, err := query.Parse(queryStr)
	if err != nil {
		return "", false
	}
	v, err := r.Eval.Evaluate(vq)
	if err != nil {
		return "", false
	}
	s := html.UnescapeString(stringifyValue(v))
	return decorate(leadingNewlineIfMarkdown(s), r.Opts), true
}

// replaceEach rewrites every non-overlapping match of re in textual
// order, each exactly once. Working through the text sequentially keeps
// the substitution at-most-one-match per occurrence even when two
// placeholders render to identical bytes.
func replaceEach(text string, re *regexp.Regexp, repl func(m []string) string) string {
	var out []byte
	rest := text
	for {
		loc := re.FindStringSubmatchIndex(rest)
		if loc == nil {
			out = append(out, rest...)
			return string(out)
		}
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = rest[loc[2*i]:loc[2*i+1]]
			}
		}
		out = append(out, rest[:loc[0]]...)
		out = append(out, repl(groups)...)
		rest = rest[loc[1]:]
	}
}
