package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/livamd/liva/internal/apperr"
)

func TestParse_Get(t *testing.T) {
	vq, err := Parse("get(x)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if vq.Func != FuncGet || len(vq.Args) != 1 || vq.Args[0] != "x" {
		t.Errorf("vq = %+v", vq)
	}
}

func TestParse_GetGlobalPath(t *testing.T) {
	vq, err := Parse("get(folder/B.md/y)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if vq.Args[0] != "folder/B.md/y" {
		t.Errorf("arg = %q", vq.Args[0])
	}
}

func TestParse_SumMultipleArgs(t *testing.T) {
	vq, err := Parse(" sum(a, b, c) ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"a", "b", "c"}
	if vq.Func != FuncSum || !cmp.Equal(vq.Args, want) {
		t.Errorf("vq = %+v, want args %v", vq, want)
	}
}

func TestParse_JSFunc(t *testing.T) {
	vq, err := Parse("jsFunc(a, b, func = (x, y) => x + y)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"(x, y) => x + y", "a", "b"}
	if diff := cmp.Diff(want, vq.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_JSFuncNoPathArgs(t *testing.T) {
	vq, err := Parse("jsFunc(func = () => 1 + 1)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(vq.Args) != 1 || vq.Args[0] != "() => 1 + 1" {
		t.Errorf("args = %v", vq.Args)
	}
}

func TestParse_JSFuncSavedName(t *testing.T) {
	// A saved function is referenced by name in the func = position.
	vq, err := Parse("jsFunc(a, func = double)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"double", "a"}
	if diff := cmp.Diff(want, vq.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_JSFuncMultiline(t *testing.T) {
	vq, err := Parse("jsFunc(n, func = (x) =>\n  x * 2)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if vq.Args[0] != "(x) =>\n  x * 2" {
		t.Errorf("lambda = %q", vq.Args[0])
	}
}

func TestParse_CodeBlock(t *testing.T) {
	vq, err := Parse("codeBlock(code = echo {{name}}, lang = sh, a.md/name)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"echo {{name}}", "sh", "a.md/name"}
	if diff := cmp.Diff(want, vq.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_CodeBlockPathsBeforeCode(t *testing.T) {
	vq, err := Parse("codeBlock(a, b, code = run {{x}} {{y}}, lang = bash)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"run {{x}} {{y}}", "bash", "a", "b"}
	if diff := cmp.Diff(want, vq.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, q := range []string{
		"",
		"not a query",
		"unknown(x)",
		"get",
		"jsFunc(a, b)", // no func =
	} {
		_, err := Parse(q)
		if err == nil {
			t.Errorf("Parse(%q): expected error", q)
			continue
		}
		var pe *apperr.ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q): error is %T, want *apperr.ParseError", q, err)
		}
	}
	if vq := TryParse("garbage"); vq != nil {
		t.Errorf("TryParse(garbage) = %+v, want nil", vq)
	}
}
