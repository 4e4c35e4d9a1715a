package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/igvf/catalog-llm/internal/core"
	"github.com/igvf/catalog-llm/internal/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the catalog as MCP tools",
	Long: `Serve the ask_catalog and list_collections tools over the Model Context
Protocol. Without --http the server speaks on stdin/stdout and logs to stderr.

Examples:
  catalog-llm mcp
  catalog-llm mcp --http 127.0.0.1:5001`,
	Args: cobra.NoArgs,
	Run:  runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "Serve the streamable HTTP transport on this address instead of stdio")
}

func runMCP(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()
	logger := newLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := core.Bootstrap(ctx, cfg, nil, logger, core.Factories{})
	if err != nil {
		exitError("%v", err)
	}
	defer cleanup()

	srv, err := mcp.NewServer(app, logger)
	if err != nil {
		exitError("%v", err)
	}

	if mcpHTTPAddr != "" {
		err = srv.RunHTTP(ctx, mcpHTTPAddr)
	} else {
		err = srv.Run(ctx)
	}
	if err != nil && ctx.Err() == nil {
		logger.Error("mcp server error", "error", err)
		cleanup()
		os.Exit(1)
	}
}
