// Package render implements the in-document placeholder protocol: the
// marker syntax pairing a query with its last-rendered value, the
// whole-document recompute pass, and plain delimiter substitution.
//
// The marker syntax is a wire format. Three generations exist in
// documents and all three must keep matching byte-for-byte across
// recompute passes:
//
//	v1 (legacy)   <span id="KEY"/>value<span type="end"/>
//	v2 (escaped)  <span query="QUERY"/>value<span type="end"/>
//	v3 (canonical) <span query="QUERY"></span>value<span type="end"></span>
//
// Recomputing a v1 or v2 marker rewrites it in canonical form; v3 is
// what insertion emits.
package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/livamd/liva/internal/props"
)

var openTagRe = regexp.MustCompile(`<span query="([\s\S]+?)"></span>`)

const endTag = `<span type="end"></span>`

// EscapeQuery encodes characters that cannot live inside a marker
// attribute. Newlines become the &NewLine; entity so multi-line lambda
// and code bodies survive the round trip.
func EscapeQuery(q string) string {
	q = strings.ReplaceAll(q, `"`, "&quot;")
	return strings.ReplaceAll(q, "\n", "&NewLine;")
}

// UnescapeQuery reverses EscapeQuery (full HTML entity decoding, same
// as the value unescaping applied after evaluation).
func UnescapeQuery(q string) string {
	return html.UnescapeString(q)
}

// Placeholder renders a canonical marker for query with the given
// rendered value. The query is escaped; the value is spliced verbatim.
func Placeholder(queryStr, rendered string) string {
	return fmt.Sprintf(`<span query="%s"></span>%s%s`, EscapeQuery(queryStr), rendered, endTag)
}

// errorSpan is the inline rendering of a failed placeholder.
func errorSpan(message string) string {
	return fmt.Sprintf(`<span style="color: red">Error: %s</span>`, message)
}

// legacyErrorSpan is the fixed token rendered when a legacy id-marker
// key has no value.
const legacyErrorSpan = `<span style="color: red">Live Variable Error</span>`

// Span is a located placeholder occurrence inside raw text.
type Span struct {
	Start int    // byte offset of the opening tag
	End   int    // byte offset just past the end tag
	Query string // decoded query
}

// FindSpanAt locates the placeholder surrounding the cursor offset: the
// nearest opening tag before the cursor that is not already closed by
// an intervening end tag, and its matching end tag at or after the
// cursor. Returns false when the cursor is not inside a placeholder.
// Callers must replace exactly this span — documents may contain many
// placeholders, so "replace first occurrence" is not an option.
func FindSpanAt(text string, cursor int) (Span, bool) {
	if cursor < 0 || cursor > len(text) {
		return Span{}, false
	}
	before := text[:cursor]
	opens := openTagRe.FindAllStringSubmatchIndex(before, -1)
	if len(opens) == 0 {
		return Span{}, false
	}
	last := opens[len(opens)-1]
	// An end tag between the opening tag and the cursor means the
	// cursor sits after a complete placeholder, not inside one.
	if strings.Contains(before[last[1]:], endTag) {
		return Span{}, false
	}
	endIdx := strings.Index(text[cursor:], endTag)
	if endIdx < 0 {
		// Unterminated marker: no match.
		return Span{}, false
	}
	return Span{
		Start: last[0],
		End:   cursor + endIdx + len(endTag),
		Query: UnescapeQuery(text[last[2]:last[3]]),
	}, true
}

// ReplaceSpan splices a freshly built placeholder over the located span.
func ReplaceSpan(text string, span Span, queryStr, rendered string) string {
	return text[:span.Start] + Placeholder(queryStr, rendered) + text[span.End:]
}

// leadingNewlineIfMarkdown prepends a newline when the rendered value
// starts with Markdown block syntax, so the block is not glued to the
// marker tag.
func leadingNewlineIfMarkdown(s string) string {
	for _, prefix := range []string{"```", "# ", "- ", "> "} {
		if strings.HasPrefix(s, prefix) {
			return "\n" + s
		}
	}
	return s
}

// decorate applies the configured highlight wrapping to a rendered value.
func decorate(s string, opts Options) string {
	if opts.HighlightDynamic && opts.DynamicColor != "" {
		s = fmt.Sprintf(`<span style="color: %s">%s</span>`, opts.DynamicColor, s)
	}
	if opts.HighlightText {
		s = "<mark>" + s + "</mark>"
	}
	return s
}

// stringifyValue is the single stringification used for every rendered
// value, shared with get-twice-in-a-row consistency.
func stringifyValue(v any) string {
	return props.Stringify(v)
}
