package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/livamd/liva/internal/engine"
	"github.com/livamd/liva/internal/props"
	"github.com/livamd/liva/internal/query"
	"github.com/livamd/liva/internal/render"
	"github.com/livamd/liva/internal/storage"
	"github.com/livamd/liva/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	testutil.WriteDoc(t, store, "A.md", map[string]any{"x": 3, "status": "open"}, "body\n")

	ps := props.NewStore(store, nil)
	if err := ps.Refresh(); err != nil {
		t.Fatal(err)
	}
	ps.SetActiveDocument("A.md")

	eng := engine.New(store, ps, db, engine.Config{
		Delims: query.DefaultDelimiters,
		Render: render.Options{},
	}, nil, nil)

	srv := New(eng, db)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_property":
		result, err = srv.getProperty(ctx, req)
	case "search_properties":
		result, err = srv.searchProperties(ctx, req)
	case "list_paths":
		result, err = srv.listPaths(ctx, req)
	case "query_variables":
		result, err = srv.queryVariables(ctx, req)
	case "recompute_document":
		result, err = srv.recomputeDocument(ctx, req)
	case "save_function":
		result, err = srv.saveFunction(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestGetProperty(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_property", map[string]interface{}{"path": "x"})
	if resultText(r) != "3" {
		t.Errorf("get_property = %q", resultText(r))
	}

	r = callTool(t, srv, "get_property", map[string]interface{}{"path": "missing"})
	if !r.IsError {
		t.Error("expected error for missing property")
	}
}

func TestQueryVariables(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "query_variables", map[string]interface{}{"query": "get(status)"})
	if !strings.Contains(resultText(r), `"rendered": "open"`) {
		t.Errorf("query_variables = %q", resultText(r))
	}

	r = callTool(t, srv, "query_variables", map[string]interface{}{"query": "garbage"})
	if !r.IsError {
		t.Error("expected error for unparseable query")
	}
}

func TestListPaths(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_paths", map[string]interface{}{"contains": "status"})
	if !strings.Contains(resultText(r), "status") {
		t.Errorf("list_paths = %q", resultText(r))
	}
}

func TestRecomputeDocument(t *testing.T) {
	srv, store := testServer(t)
	doc := "---\nx: 3\nstatus: open\n---\n" +
		`<span query="get(x)"></span>?<span type="end"></span>` + "\n"
	if err := store.Write("A.md", []byte(doc)); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "recompute_document", map[string]interface{}{"path": "A.md"})
	if !strings.Contains(resultText(r), `"changed":true`) {
		t.Errorf("recompute_document = %q", resultText(r))
	}
	data, _ := store.Read("A.md")
	if !strings.Contains(string(data), `></span>3<span type="end">`) {
		t.Errorf("document = %q", data)
	}
}

func TestSaveFunction(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "save_function", map[string]interface{}{
		"name": "triple",
		"code": "(x) => x * 3",
	})
	if resultText(r) != "saved function triple" {
		t.Errorf("save_function = %q", resultText(r))
	}

	r = callTool(t, srv, "query_variables", map[string]interface{}{"query": "jsFunc(x, func = triple)"})
	if !strings.Contains(resultText(r), `"value": 9`) {
		t.Errorf("query_variables = %q", resultText(r))
	}

	// Duplicate names are rejected.
	r = callTool(t, srv, "save_function", map[string]interface{}{
		"name": "triple",
		"code": "(x) => x",
	})
	if !r.IsError {
		t.Error("expected error for duplicate function name")
	}
}
