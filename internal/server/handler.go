// Package server implements the catalog-llm HTTP handlers and middleware.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/igvf/catalog-llm/internal/core"
	"github.com/igvf/catalog-llm/internal/metrics"
)

// Service is the application the handlers serve.
type Service interface {
	Handle(ctx context.Context, password, query string) (map[string]any, error)
	Health() (core.Report, bool)
}

var _ Service = (*core.App)(nil)

// ServerConfig holds configurable limits for the server.
type ServerConfig struct {
	MaxRequestBody int64         // bytes
	RateLimit      int           // /query requests per client per RateWindow
	RateWindow     time.Duration // sliding window length
	TrustProxy     bool          // key clients by X-Forwarded-For
	Metrics        *metrics.Metrics
}

// DefaultServerConfig returns reasonable defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		MaxRequestBody: 1 << 20, // 1MB
		RateLimit:      10,
		RateWindow:     time.Minute,
	}
}

// Handler creates the HTTP handler with all routes and middleware.
// The returned cleanup function stops background goroutines and should be
// called on server shutdown.
func Handler(svc Service, cfg *ServerConfig, logger *slog.Logger) (http.Handler, func()) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	rl := newRateLimiter(cfg.RateLimit, cfg.RateWindow)
	rl.trustProxy = cfg.TrustProxy
	rl.onReject = cfg.Metrics.IncRateLimited

	mux := http.NewServeMux()

	// rate limiting runs before the body is read
	mux.Handle("POST /query", instrument(cfg.Metrics, "/query",
		applyMiddleware(makeQueryHandler(svc, cfg, logger), rl.middleware)))
	mux.Handle("GET /health", instrument(cfg.Metrics, "/health", makeHealthHandler(svc)))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	// Apply global middleware
	handler := applyMiddleware(mux,
		recoveryMiddleware(logger),
		loggingMiddleware(logger, cfg.TrustProxy),
		requestIDMiddleware,
	)

	cleanup := func() {
		rl.Stop()
	}

	return handler, cleanup
}

// applyMiddleware applies middleware in reverse order so the first in the list runs first.
func applyMiddleware(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type queryRequest struct {
	Password *string `json:"password"`
	Query    *string `json:"query"`
}

func makeQueryHandler(svc Service, cfg *ServerConfig, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := readJSON(r, cfg.MaxRequestBody, &req); err != nil || req.Password == nil || req.Query == nil {
			writeError(w, http.StatusBadRequest, core.MsgMissingFields)
			return
		}

		resp, err := svc.Handle(r.Context(), *req.Password, *req.Query)
		if err != nil {
			status := statusFor(core.KindOf(err))
			if status >= http.StatusInternalServerError {
				reqID, _ := r.Context().Value(contextKeyRequestID).(string)
				logger.Error("query failed", "error", err, "request_id", reqID)
			}
			if status == http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
				writeJSON(w, status, map[string]string{
					"query": *req.Query,
					"error": err.Error(),
				})
				return
			}
			writeError(w, status, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func makeHealthHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, ok := svc.Health()
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}

func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindUnauthorized:
		return http.StatusForbidden
	case core.KindUnavailable:
		return http.StatusServiceUnavailable
	case core.KindNoCollections:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(r *http.Request, maxSize int64, v interface{}) error {
	limited := io.LimitReader(r.Body, maxSize)
	if err := json.NewDecoder(limited).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
