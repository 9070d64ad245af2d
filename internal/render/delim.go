package render

import (
	"regexp"
	"strings"

	"github.com/livamd/liva/internal/props"
)

// fencedBlockRe matches a fenced code block with a language tag.
var fencedBlockRe = regexp.MustCompile("(?s)```(\\w+)\\n(.*?)\\n```")

// substituteCodeBlocks applies delimiter substitution to the body of
// every fenced code block. Spans whose inner token does not resolve are
// left untouched, so templates survive until their variables exist.
// The substituted form is what readers (and "copy code") get; the
// template form stays recoverable only from documents that were never
// recomputed — one policy, applied uniformly.
func (r *Renderer) substituteCodeBlocks(text string) string {
	return replaceEach(text, fencedBlockRe, func(m []string) string {
		body := r.substituteDelims(m[2], false)
		if body == m[2] {
			return m[0]
		}
		return "```" + m[1] + "\n" + body + "\n```"
	})
}

// Interpolate applies delimiter substitution to prose text, wrapping
// resolved values with the configured highlighting.
func (r *Renderer) Interpolate(text string) string {
	return r.substituteDelims(text, true)
}

// substituteDelims replaces every resolvable start…end span in s with
// the stringified property value. wrap controls HTML highlight
// wrapping (never inside code blocks).
func (r *Renderer) substituteDelims(s string, wrap bool) string {
	pattern := r.Eval.Delims.Pattern()
	return replaceEach(s, pattern, func(m []string) string {
		path := strings.TrimSpace(m[1])
		v, ok := r.Eval.Store.GetProperty(path)
		if !ok {
			return m[0]
		}
		out := props.Stringify(v)
		if wrap {
			out = decorate(out, r.Opts)
		}
		return out
	})
}
