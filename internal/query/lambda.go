package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
)

// Lambda sources use arrow syntax: "(a, b) => a + b" or "a => a * 2".
// The parameter list is split off and the body is evaluated as an
// expr-lang expression with the parameters bound positionally to the
// resolved values. expr is a sandboxed expression engine: no host
// access, no side effects, so user-authored code cannot escape.
var (
	parenLambdaRe = regexp.MustCompile(`(?s)^\s*\(([^)]*)\)\s*=>\s*(.+)$`)
	identLambdaRe = regexp.MustCompile(`(?s)^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=>\s*(.+)$`)
)

// splitLambda separates the parameter names from the expression body.
func splitLambda(src string) ([]string, string, error) {
	var paramList, body string
	if m := parenLambdaRe.FindStringSubmatch(src); m != nil {
		paramList, body = m[1], m[2]
	} else if m := identLambdaRe.FindStringSubmatch(src); m != nil {
		paramList, body = m[1], m[2]
	} else {
		return nil, "", fmt.Errorf("query: not a lambda: %q", src)
	}
	var params []string
	for _, p := range strings.Split(paramList, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			params = append(params, p)
		}
	}
	return params, strings.TrimSpace(body), nil
}

// evalLambda compiles and runs a lambda with values bound to its
// parameters in positional order. Panics inside the engine are
// converted to errors; the caller treats any error as "could not
// compute".
func evalLambda(src string, values []any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("query: lambda panicked: %v", r)
		}
	}()

	params, body, err := splitLambda(src)
	if err != nil {
		return nil, err
	}
	env := make(map[string]any, len(params))
	for i, p := range params {
		if i < len(values) {
			env[p] = values[i]
		} else {
			env[p] = nil
		}
	}
	out, err = expr.Eval(body, env)
	if err != nil {
		return nil, fmt.Errorf("query: lambda eval: %w", err)
	}
	return out, nil
}
