package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/igvf/catalog-llm/internal/arango"
	"github.com/igvf/catalog-llm/internal/chain"
	"github.com/igvf/catalog-llm/internal/config"
	"github.com/igvf/catalog-llm/internal/history"
	"github.com/igvf/catalog-llm/internal/llm"
	"github.com/igvf/catalog-llm/internal/llm/openai"
	"github.com/igvf/catalog-llm/internal/metrics"
	"github.com/igvf/catalog-llm/internal/prompts"
	"github.com/igvf/catalog-llm/internal/schema"
	"github.com/igvf/catalog-llm/internal/selector"
)

// Factories build the external clients. Zero fields use the real clients.
type Factories struct {
	Arango func(ctx context.Context, cfg arango.Config) (arango.ClientInterface, error)
	LLM    func(cfg openai.LLMConfig) (llm.Service, error)
}

func (f Factories) withDefaults() Factories {
	if f.Arango == nil {
		f.Arango = func(ctx context.Context, cfg arango.Config) (arango.ClientInterface, error) {
			return arango.NewClient(ctx, cfg)
		}
	}
	if f.LLM == nil {
		f.LLM = func(cfg openai.LLMConfig) (llm.Service, error) {
			return openai.NewLLMService(cfg)
		}
	}
	return f
}

// Bootstrap connects to the graph, reads its schema and builds the model
// clients. Failure to reach the graph or build the model is recorded in the
// health state rather than returned; only local configuration problems are
// errors. The returned cleanup closes the history store.
func Bootstrap(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger, f Factories) (*App, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	f = f.withDefaults()

	examples, err := prompts.LoadExamples(cfg.Chain.ExamplesPath)
	if err != nil {
		return nil, nil, err
	}

	var recorder history.Recorder
	cleanup := func() {}
	if cfg.History.Path != "" {
		st, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
		recorder = st
		cleanup = func() {
			if err := st.Close(); err != nil {
				logger.Error("failed to close history", "error", err)
			}
		}
		logger.Info("question history enabled", "path", cfg.History.Path)
	}

	health := HealthState{BackendURL: cfg.Database.URL}

	db, store, err := connectGraph(ctx, cfg, f)
	if err != nil {
		health.ArangoErr = err.Error()
		logger.Error("error initializing ArangoDB graph", "error", err, "backend_url", cfg.Database.URL)
	} else {
		health.ArangoOK = true
		logger.Info("loaded graph schema", "collections", store.Len(), "backend_url", cfg.Database.URL)
	}

	var (
		sel Selector
		ch  Chain
	)
	svc, err := f.LLM(openai.LLMConfig{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		Model:             cfg.OpenAI.ChainModel,
		Timeout:           cfg.OpenAI.Timeout.Duration,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
		Burst:             cfg.OpenAI.Burst,
	})
	if err != nil {
		logger.Error("error initializing LLM", "error", err)
	} else {
		health.LLMOK = true
		pingModel(ctx, svc, logger)

		s, err := selector.New(svc, cfg.OpenAI.SelectorModel)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		sel = s

		if db != nil {
			c, err := chain.New(svc, db, chain.Config{
				Model:                 cfg.OpenAI.ChainModel,
				TopK:                  cfg.Chain.TopK,
				MaxGenerationAttempts: cfg.Chain.MaxGenerationAttempts,
				ReturnAQLQuery:        cfg.Chain.ReturnAQLQuery,
				ReturnAQLResult:       cfg.Chain.ReturnAQLResult,
				AllowWriteQueries:     cfg.Chain.AllowWriteQueries,
				Examples:              examples,
			}, logger.With("component", "chain"))
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			ch = c
		}
	}

	app := NewApp(Options{
		Schema:   store,
		Selector: sel,
		Chain:    ch,
		Health:   health,
		Password: cfg.QueryPassword,
		Metrics:  m,
		History:  recorder,
		Logger:   logger,
	})
	return app, cleanup, nil
}

func connectGraph(ctx context.Context, cfg *config.Config, f Factories) (arango.ClientInterface, *schema.Store, error) {
	db, err := f.Arango(ctx, arango.Config{
		URL:        cfg.Database.URL,
		Database:   cfg.Database.Name,
		Username:   cfg.Database.Username,
		Password:   cfg.Database.Password,
		SampleSize: cfg.Database.SampleSize,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("ping graph database: %w", err)
	}
	s, err := db.GetSchema(ctx)
	if err != nil {
		return nil, nil, err
	}
	return db, schema.New(s), nil
}

// pingModel checks the model endpoint without affecting health; the model
// counts as initialized once its client is built.
func pingModel(ctx context.Context, svc llm.Service, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		logger.Warn("model endpoint not reachable", "error", err, "model", svc.ModelName())
	}
}
