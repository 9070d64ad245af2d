package render

import (
	"testing"
)

func TestSubstituteCodeBlocks(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\nhost: example.com\n---\n"}, Options{})

	in := "text\n```sh\ncurl {{host}}\n```\ntail"
	want := "text\n```sh\ncurl example.com\n```\ntail"
	if got := r.Recompute(in); got != want {
		t.Errorf("code block = %q, want %q", got, want)
	}
}

func TestSubstituteCodeBlocks_UnresolvedLeftIntact(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\nhost: h\n---\n"}, Options{})

	in := "```sh\ncurl {{host}}:{{port}}\n```"
	want := "```sh\ncurl h:{{port}}\n```"
	if got := r.Recompute(in); got != want {
		t.Errorf("code block = %q, want %q", got, want)
	}

	// A block with no resolvable spans is untouched byte-for-byte.
	in = "```sh\necho {{nothing}}\n```"
	if got := r.Recompute(in); got != in {
		t.Errorf("template block modified: %q", got)
	}
}

func TestInterpolate(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\nname: liva\n---\n"},
		Options{HighlightDynamic: true, DynamicColor: "#00ff00"})

	got := r.Interpolate("hello {{name}}, bye {{missing}}")
	want := `hello <span style="color: #00ff00">liva</span>, bye {{missing}}`
	if got != want {
		t.Errorf("Interpolate = %q, want %q", got, want)
	}
}

func TestInterpolate_TrimsTokenWhitespace(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\nname: liva\n---\n"}, Options{})

	if got := r.Interpolate("x {{ name }} y"); got != "x liva y" {
		t.Errorf("Interpolate = %q", got)
	}
}
