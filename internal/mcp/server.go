// Package mcp exposes the catalog ask path as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/igvf/catalog-llm/internal/schema"
)

// Version is the MCP server version.
const Version = "0.1.0"

// App is the application the tools call into.
type App interface {
	Handle(ctx context.Context, password, query string) (map[string]any, error)
	Schema() *schema.Store
}

// Server is the MCP server for the catalog.
type Server struct {
	app    App
	server *mcp.Server
	logger *slog.Logger
}

// NewServer creates a new MCP server over app.
func NewServer(app App, logger *slog.Logger) (*Server, error) {
	if app == nil {
		return nil, errors.New("mcp: app is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		app:    app,
		server: mcp.NewServer(&mcp.Implementation{Name: "catalog-llm", Version: Version}, nil),
		logger: logger,
	}
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server", "listen", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down MCP server: %w", err)
		}
		return nil
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("MCP server: %w", err)
		}
		return nil
	}
}
