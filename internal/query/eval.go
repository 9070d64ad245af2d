package query

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/livamd/liva/internal/props"
)

// Delimiters bracket variable tokens inside code bodies and plain text.
type Delimiters struct {
	Start string
	End   string
}

// DefaultDelimiters is the out-of-the-box {{ }} pair.
var DefaultDelimiters = Delimiters{Start: "{{", End: "}}"}

// Pattern returns a regexp matching one delimiter span, capturing the
// inner token.
func (d Delimiters) Pattern() *regexp.Regexp {
	start := d.Start
	end := d.End
	if start == "" || end == "" {
		start, end = DefaultDelimiters.Start, DefaultDelimiters.End
	}
	return regexp.MustCompile(regexp.QuoteMeta(start) + `(.*?)` + regexp.QuoteMeta(end))
}

// FuncLookup resolves a saved custom-function name to its lambda source.
type FuncLookup func(name string) (string, bool)

// Evaluator computes query results against the property store. It is
// pure with respect to the vault: evaluation reads properties and
// returns a value, never writes.
type Evaluator struct {
	Store  *props.Store
	Delims Delimiters
	// Lookup resolves custom-function names referenced from jsFunc
	// queries. May be nil when no registry is wired.
	Lookup FuncLookup
}

// Evaluate dispatches on the query function. A nil error means the
// query produced a value (possibly the empty string); any failure is
// reported as an error that callers degrade to an "undefined" result.
func (e *Evaluator) Evaluate(q *VarQuery) (any, error) {
	switch q.Func {
	case FuncGet:
		return e.get(q.Args)
	case FuncSum:
		return e.sum(q.Args)
	case FuncJS:
		return e.jsFunc(q.Args)
	case FuncCodeBlock:
		return e.codeBlock(q.Args)
	default:
		return nil, fmt.Errorf("query: function %q has no evaluator", q.Func)
	}
}

// get resolves the first argument; a missing path yields the empty
// string so downstream stringification stays total.
func (e *Evaluator) get(args []string) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("query: get requires a path argument")
	}
	v, ok := e.Store.GetProperty(args[0])
	if !ok || v == nil {
		return "", nil
	}
	return v, nil
}

// sum folds the resolved values: arithmetic when every value is
// numeric, string concatenation otherwise. Missing paths contribute
// nothing to the fold.
func (e *Evaluator) sum(args []string) (any, error) {
	var values []any
	for _, path := range args {
		if v, ok := e.Store.GetProperty(path); ok {
			values = append(values, v)
		}
	}
	allNumbers := len(values) > 0
	for _, v := range values {
		if !props.IsNumber(v) {
			allNumbers = false
			break
		}
	}
	if allNumbers {
		total := 0.0
		for _, v := range values {
			total += props.AsFloat(v)
		}
		return total, nil
	}
	var b strings.Builder
	for _, v := range values {
		b.WriteString(props.Stringify(v))
	}
	return b.String(), nil
}

// jsFunc compiles the lambda source (args[0], or a saved function it
// names) and invokes it with the resolved remaining arguments. Any
// unresolved argument fails fast before the lambda runs.
func (e *Evaluator) jsFunc(args []string) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("query: jsFunc requires a lambda")
	}
	src := args[0]
	if !strings.Contains(src, "=>") {
		if e.Lookup == nil {
			return nil, fmt.Errorf("query: no custom function registry for %q", src)
		}
		code, ok := e.Lookup(src)
		if !ok {
			return nil, fmt.Errorf("query: custom function %q not found", src)
		}
		src = code
	}
	values := make([]any, 0, len(args)-1)
	for _, path := range args[1:] {
		v, ok := e.Store.GetProperty(path)
		if !ok {
			return nil, fmt.Errorf("query: cannot compute an undefined value, variable reference %q is not set", path)
		}
		values = append(values, v)
	}
	return evalLambda(src, values)
}

// codeBlock substitutes each resolved value into the next delimiter
// span of the code body in textual order, rescanning from the start
// after each substitution. The token name between the delimiters is
// ignored: substitution is positional. The result is wrapped in a
// fenced code block tagged with the language and HTML-unescaped.
func (e *Evaluator) codeBlock(args []string) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("query: codeBlock requires code and lang")
	}
	code := args[0]
	lang := args[1]
	pattern := e.Delims.Pattern()
	for _, path := range args[2:] {
		v, ok := e.Store.GetProperty(path)
		if !ok {
			continue
		}
		loc := pattern.FindStringIndex(code)
		if loc == nil {
			break
		}
		code = code[:loc[0]] + props.Stringify(v) + code[loc[1]:]
	}
	block := fmt.Sprintf("\n```%s\n%s\n```\n", lang, code)
	return html.UnescapeString(block), nil
}
