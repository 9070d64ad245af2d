// Package query implements the live-variable query language: parsing
// of func(args) expressions and their evaluation against the property
// store.
//
// Known looseness, kept for compatibility with existing documents: sum
// over a mixed-type argument list degrades to string concatenation
// instead of raising a type error, and codeBlock substitution is
// positional, not keyed by the token name between the delimiters.
package query

import (
	"regexp"
	"strings"

	"github.com/livamd/liva/internal/apperr"
)

// Func identifies a query function.
type Func string

const (
	FuncGet       Func = "get"
	FuncSum       Func = "sum"
	FuncConcat    Func = "concat" // reserved, not wired to an evaluator
	FuncJS        Func = "jsFunc"
	FuncCodeBlock Func = "codeBlock"
)

// VarQuery is a parsed query: a function name plus its raw string
// arguments. Immutable once parsed; argument semantics depend on Func.
type VarQuery struct {
	Func Func
	Args []string
}

var (
	// Top level: functionName(argsBody). The body is matched greedily
	// so nested parentheses and multi-line lambda/code content stay
	// inside it.
	queryRe = regexp.MustCompile(`(?s)^\s*(get|sum|concat|jsFunc|codeBlock)\((.*)\)\s*$`)

	// jsFunc body: optional comma-separated path args, then the lambda
	// after the last "func =" (the greedy prefix makes the last
	// occurrence win, so lambda bodies may themselves contain commas
	// and "=" signs).
	jsFuncRe = regexp.MustCompile(`(?s)^(?:(.*),)?\s*func\s*=\s*(.+?)\s*$`)

	// codeBlock body: optional path args, greedy code body, then the
	// trailing "lang = token" with optional path args after it.
	codeBlockRe = regexp.MustCompile(`(?s)^(?:(.*),)?\s*code\s*=\s*(.*),\s*lang\s*=\s*(.+?)\s*$`)
)

// Parse parses a query string into a VarQuery. The error is always a
// *apperr.ParseError.
func Parse(q string) (*VarQuery, error) {
	m := queryRe.FindStringSubmatch(q)
	if m == nil {
		return nil, &apperr.ParseError{Query: q, Reason: "not a known function call"}
	}
	fn := Func(m[1])
	args, err := parseArgs(fn, m[2])
	if err != nil {
		return nil, &apperr.ParseError{Query: q, Reason: err.Error()}
	}
	return &VarQuery{Func: fn, Args: args}, nil
}

// TryParse is the non-throwing variant: nil when q does not parse.
func TryParse(q string) *VarQuery {
	vq, err := Parse(q)
	if err != nil {
		return nil
	}
	return vq
}

func parseArgs(fn Func, body string) ([]string, error) {
	switch fn {
	case FuncJS:
		return parseJSFuncArgs(body)
	case FuncCodeBlock:
		return parseCodeBlockArgs(body)
	default:
		return splitPaths(body), nil
	}
}

// parseJSFuncArgs yields [lambdaSource, pathArgs...].
func parseJSFuncArgs(body string) ([]string, error) {
	m := jsFuncRe.FindStringSubmatch(body)
	if m == nil {
		return nil, &parseArgsError{fn: FuncJS}
	}
	args := []string{m[2]}
	if m[1] != "" {
		args = append(args, splitPaths(m[1])...)
	}
	return args, nil
}

// parseCodeBlockArgs yields [codeBody, lang, pathArgs...]. Path args may
// appear before "code =", after "lang = token", or both; written order
// is preserved.
func parseCodeBlockArgs(body string) ([]string, error) {
	m := codeBlockRe.FindStringSubmatch(body)
	if m == nil {
		return nil, &parseArgsError{fn: FuncCodeBlock}
	}
	code := m[2]
	langAndRest := splitPaths(m[3])
	lang := langAndRest[0]
	args := []string{code, lang}
	if m[1] != "" {
		args = append(args, splitPaths(m[1])...)
	}
	args = append(args, langAndRest[1:]...)
	return args, nil
}

func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

type parseArgsError struct {
	fn Func
}

func (e *parseArgsError) Error() string {
	return "malformed " + string(e.fn) + " arguments"
}
