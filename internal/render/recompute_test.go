package render

import (
	"strings"
	"testing"

	"github.com/livamd/liva/internal/props"
	"github.com/livamd/liva/internal/query"
	"github.com/livamd/liva/internal/storage"
)

func testRenderer(t *testing.T, docs map[string]string, opts Options) (*Renderer, *[]string) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for path, content := range docs {
		if err := store.Write(path, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	ps := props.NewStore(store, nil)
	if err := ps.Refresh(); err != nil {
		t.Fatal(err)
	}
	ps.SetActiveDocument("A.md")

	var notices []string
	r := &Renderer{
		Eval:     &query.Evaluator{Store: ps, Delims: query.DefaultDelimiters},
		Opts:     opts,
		Notifier: NotifierFunc(func(msg string) { notices = append(notices, msg) }),
	}
	return r, &notices
}

func TestRecompute_CanonicalMarker(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\nx: 1\n---\n"}, Options{})

	in := `value: <span query="get(x)"></span>stale<span type="end"></span>`
	want := `value: <span query="get(x)"></span>1<span type="end"></span>`
	if got := r.Recompute(in); got != want {
		t.Errorf("Recompute = %q, want %q", got, want)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\nx: 1\ny: hello\n---\n"}, Options{})

	in := `a <span query="get(x)"></span>?<span type="end"></span> ` +
		`b <span query="get(y)"></span>?<span type="end"></span>`
	once := r.Recompute(in)
	twice := r.Recompute(once)
	if once != twice {
		t.Errorf("recompute is not byte-stable:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestRecompute_MigratesOlderForms(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\nx: 7\n---\n"}, Options{})

	// Self-closing query marker is rewritten in canonical form.
	in := `<span query="get(x)"/>old<span type="end"/>`
	want := `<span query="get(x)"></span>7<span type="end"></span>`
	if got := r.Recompute(in); got != want {
		t.Errorf("v2 migration = %q, want %q", got, want)
	}

	// Legacy id marker with a live key migrates to a get() query.
	in = `<span id="x"/>old<span type="end"/>`
	want = `<span query="get(x)"></span>7<span type="end"></span>`
	if got := r.Recompute(in); got != want {
		t.Errorf("legacy migration = %q, want %q", got, want)
	}
}

func TestRecompute_LegacyMissKeepsForm(t *testing.T) {
	r, notices := testRenderer(t, map[string]string{"A.md": "---\nx: 1\n---\n"}, Options{})

	in := `<span id="gone"/>old<span type="end"/>`
	want := `<span id="gone"/><span style="color: red">Live Variable Error</span><span type="end"/>`
	got := r.Recompute(in)
	if got != want {
		t.Errorf("legacy miss = %q, want %q", got, want)
	}
	// Byte-stable on the next pass.
	if again := r.Recompute(got); again != got {
		t.Errorf("legacy miss not stable: %q", again)
	}
	if len(*notices) != 2 {
		t.Fatalf("notices = %v, want one per pass", *notices)
	}
	if (*notices)[0] != "Failed to get value of variable gone" {
		t.Errorf("notice = %q", (*notices)[0])
	}
}

func TestRecompute_InvalidQuery(t *testing.T) {
	r, notices := testRenderer(t, map[string]string{"A.md": "---\nx: 1\n---\n"}, Options{})

	in := `<span query="bogus(x)"></span>old<span type="end"></span>`
	want := `<span query="bogus(x)"></span><span style="color: red">Error: Invalid Query</span><span type="end"></span>`
	got := r.Recompute(in)
	if got != want {
		t.Errorf("invalid query = %q, want %q", got, want)
	}
	if len(*notices) != 1 || !strings.Contains((*notices)[0], "Failed to get value of query") {
		t.Errorf("notices = %v", *notices)
	}
	// The error rendering itself is byte-stable.
	if again := r.Recompute(got); again != got {
		t.Errorf("error rendering not stable: %q", again)
	}
}

func TestRecompute_PreservesEscapedQuery(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\na: 3\n---\n"}, Options{})

	// A multi-line query survives as its escaped attribute byte-for-byte.
	escaped := "jsFunc(a,&NewLine;func = (x) => x + 1)"
	in := `<span query="` + escaped + `"></span>?<span type="end"></span>`
	want := `<span query="` + escaped + `"></span>4<span type="end"></span>`
	if got := r.Recompute(in); got != want {
		t.Errorf("Recompute = %q, want %q", got, want)
	}
}

func TestRecompute_EachMarkerOnce(t *testing.T) {
	r, notices := testRenderer(t, map[string]string{"A.md": "---\nx: 1\n---\n"}, Options{})

	// Two failing placeholders produce exactly two notifications, even
	// though both render to identical bytes.
	in := `<span query="bad("></span>a<span type="end"></span>` +
		`<span query="bad("></span>b<span type="end"></span>`
	r.Recompute(in)
	if len(*notices) != 2 {
		t.Errorf("notices = %d, want 2: %v", len(*notices), *notices)
	}
}

func TestRecompute_Decoration(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\nx: 1\n---\n"},
		Options{HighlightDynamic: true, DynamicColor: "#ff0000"})

	in := `<span query="get(x)"></span>?<span type="end"></span>`
	want := `<span query="get(x)"></span><span style="color: #ff0000">1</span><span type="end"></span>`
	if got := r.Recompute(in); got != want {
		t.Errorf("decorated = %q, want %q", got, want)
	}
}

func TestRecompute_MarkdownValueGetsLeadingNewline(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\nitem: '- first'\n---\n"}, Options{})

	in := `<span query="get(item)"></span>?<span type="end"></span>`
	want := "<span query=\"get(item)\"></span>\n- first<span type=\"end\"></span>"
	if got := r.Recompute(in); got != want {
		t.Errorf("markdown value = %q, want %q", got, want)
	}
}

func TestTryCompute(t *testing.T) {
	r, _ := testRenderer(t, map[string]string{"A.md": "---\nx: 1\n---\n"}, Options{})

	if s, ok := r.TryCompute("get(x)"); !ok || s != "1" {
		t.Errorf("TryCompute = %q, %v", s, ok)
	}
	if _, ok := r.TryCompute("nonsense"); ok {
		t.Error("expected TryCompute to fail on unparseable query")
	}
	if _, ok := r.TryCompute("jsFunc(missing, func = (x) => x)"); ok {
		t.Error("expected TryCompute to fail on eval error")
	}
}
