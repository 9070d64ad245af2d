package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/livamd/liva/internal/engine"
	"github.com/livamd/liva/internal/index"
	"github.com/livamd/liva/internal/mcpserver"
	"github.com/livamd/liva/internal/props"
	"github.com/livamd/liva/internal/query"
	"github.com/livamd/liva/internal/render"
	"github.com/livamd/liva/internal/storage"
)

// RunMCP starts the MCP server on stdio. Logs go to stderr so they do
// not corrupt the protocol stream on stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	seed := make([]index.FunctionRow, 0, len(cfg.Variables.CustomFunctions))
	for _, fn := range cfg.Variables.CustomFunctions {
		seed = append(seed, index.FunctionRow{Name: fn.Name, Code: fn.Code})
	}
	if err := db.SeedFunctions(seed); err != nil {
		return fmt.Errorf("seed functions: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	ps := props.NewStore(store, logger)
	if err := ps.Refresh(); err != nil {
		logger.Warn("initial property refresh failed", slog.String("error", err.Error()))
	}

	eng := engine.New(store, ps, db, engine.Config{
		Delims: query.Delimiters{
			Start: cfg.Variables.Delimiters.Start,
			End:   cfg.Variables.Delimiters.End,
		},
		Render: render.Options{
			HighlightText:    cfg.Variables.HighlightText,
			HighlightDynamic: cfg.Variables.HighlightDynamic,
			DynamicColor:     cfg.Variables.DynamicColor,
		},
		InlineEditing: cfg.Variables.InlineEditing,
	}, nil, logger)

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(eng, db).ServeStdio()
}
