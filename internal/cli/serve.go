package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/igvf/catalog-llm/internal/config"
	"github.com/igvf/catalog-llm/internal/core"
	"github.com/igvf/catalog-llm/internal/metrics"
	"github.com/igvf/catalog-llm/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP query service",
	Long: `Run the HTTP query service.

On start the service connects to ArangoDB, reads the graph schema and builds
the model clients. Failures are reported by GET /health instead of stopping
the process; POST /query answers 503 until both are available.

Endpoints:
  POST /query    {"password": "...", "query": "..."}
  GET  /health
  GET  /metrics

Examples:
  catalog-llm serve
  catalog-llm serve --listen 127.0.0.1:5000 --log-format text`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (host:port, env: "+config.EnvListen+")")
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()
	if serveListen != "" {
		cfg.Server.Listen = serveListen
	}
	logger := newLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	app, cleanup, err := core.Bootstrap(ctx, cfg, m, logger, core.Factories{})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	scfg := server.DefaultServerConfig()
	scfg.RateLimit = cfg.Server.RateLimit
	scfg.RateWindow = cfg.Server.RateWindow.Duration
	scfg.TrustProxy = cfg.Server.TrustProxy
	scfg.Metrics = m

	h, handlerCleanup := server.Handler(app, scfg, logger)
	defer handlerCleanup()

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout.Duration,
		WriteTimeout:      cfg.Server.WriteTimeout.Duration,
		IdleTimeout:       cfg.Server.IdleTimeout.Duration,
		BaseContext:       func(_ net.Listener) context.Context { return context.Background() },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting catalog-llm", "listen", cfg.Server.Listen, "backend_url", cfg.Database.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", "error", err)
		handlerCleanup()
		cleanup()
		os.Exit(1)
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
