package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitLambda(t *testing.T) {
	tests := []struct {
		src        string
		wantParams []string
		wantBody   string
	}{
		{"(a, b) => a + b", []string{"a", "b"}, "a + b"},
		{"x => x * 2", []string{"x"}, "x * 2"},
		{"() => 42", nil, "42"},
		{"( a )=>a", []string{"a"}, "a"},
	}
	for _, tc := range tests {
		params, body, err := splitLambda(tc.src)
		if err != nil {
			t.Errorf("splitLambda(%q): %v", tc.src, err)
			continue
		}
		if diff := cmp.Diff(tc.wantParams, params); diff != "" {
			t.Errorf("splitLambda(%q) params mismatch (-want +got):\n%s", tc.src, diff)
		}
		if body != tc.wantBody {
			t.Errorf("splitLambda(%q) body = %q, want %q", tc.src, body, tc.wantBody)
		}
	}
}

func TestSplitLambda_NotALambda(t *testing.T) {
	if _, _, err := splitLambda("just text"); err == nil {
		t.Error("expected error for non-lambda source")
	}
}

func TestEvalLambda(t *testing.T) {
	v, err := evalLambda("(a, b) => a + b", []any{2, 3})
	if err != nil {
		t.Fatalf("evalLambda: %v", err)
	}
	if v != 5 {
		t.Errorf("result = %v, want 5", v)
	}

	v, err = evalLambda(`(s) => upper(s)`, []any{"go"})
	if err != nil {
		t.Fatalf("evalLambda builtin: %v", err)
	}
	if v != "GO" {
		t.Errorf("result = %v, want GO", v)
	}
}

func TestEvalLambda_MissingValueIsNil(t *testing.T) {
	// Extra parameters beyond the supplied values are bound to nil; the
	// body decides whether that is an error.
	v, err := evalLambda("(a, b) => b == nil", []any{1})
	if err != nil {
		t.Fatalf("evalLambda: %v", err)
	}
	if v != true {
		t.Errorf("result = %v, want true", v)
	}
}

func TestEvalLambda_BadBody(t *testing.T) {
	if _, err := evalLambda("(a) => a +", []any{1}); err == nil {
		t.Error("expected error for malformed body")
	}
}
