// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Liva's variable tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/livamd/liva/internal/engine"
	"github.com/livamd/liva/internal/index"
	"github.com/livamd/liva/internal/props"
)

// Server wraps the MCP server with Liva tools.
type Server struct {
	mcp *server.MCPServer
	eng *engine.Engine
	db  index.PropertyIndex
}

// New creates a new MCP server with all Liva tools registered.
func New(eng *engine.Engine, db index.PropertyIndex) *Server {
	s := &Server{eng: eng, db: db}

	s.mcp = server.NewMCPServer(
		"Liva",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_property",
		mcp.WithDescription("Resolve a local or global property path against the vault."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Property path, e.g. status or folder/note.md/status")),
	), s.getProperty)

	s.mcp.AddTool(mcp.NewTool("search_properties",
		mcp.WithDescription("Search property paths and values across the vault."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchProperties)

	s.mcp.AddTool(mcp.NewTool("list_paths",
		mcp.WithDescription("List addressable property paths, optionally filtered by substring."),
		mcp.WithString("contains", mcp.Description("Optional case-sensitive substring filter")),
	), s.listPaths)

	s.mcp.AddTool(mcp.NewTool("query_variables",
		mcp.WithDescription("Evaluate a live-variable query (get, sum, jsFunc, codeBlock) in the current context."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Query string, e.g. get(status) or sum(a, b)")),
	), s.queryVariables)

	s.mcp.AddTool(mcp.NewTool("recompute_document",
		mcp.WithDescription("Recompute every live-variable placeholder in a document and write it back."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the document (e.g. folder/note.md)")),
	), s.recomputeDocument)

	s.mcp.AddTool(mcp.NewTool("save_function",
		mcp.WithDescription("Save a named custom function (arrow lambda) usable from jsFunc queries."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Unique function name")),
		mcp.WithString("code", mcp.Required(), mcp.Description("Lambda source, e.g. (a, b) => a + b")),
	), s.saveFunction)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getProperty(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, ok := s.eng.Props().GetProperty(path)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no value at %s", path)), nil
	}
	return mcp.NewToolResultText(props.Stringify(v)), nil
}

func (s *Server) searchProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.db.SearchProperties(q, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listPaths(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contains := req.GetString("contains", "")
	paths := s.eng.Props().FindPathsContaining(contains)
	out, _ := json.MarshalIndent(paths, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) queryVariables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, rendered, err := s.eng.EvaluateQuery(q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"value": value, "rendered": rendered}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) recomputeDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	changed, err := s.eng.Recompute(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(`{"path":%q,"changed":%t}`, path, changed)), nil
}

func (s *Server) saveFunction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.db.SaveFunction(name, code); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved function %s", name)), nil
}
