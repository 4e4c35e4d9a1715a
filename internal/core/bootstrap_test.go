package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igvf/catalog-llm/internal/arango"
	"github.com/igvf/catalog-llm/internal/config"
	"github.com/igvf/catalog-llm/internal/history"
	"github.com/igvf/catalog-llm/internal/llm"
	"github.com/igvf/catalog-llm/internal/llm/openai"
	"github.com/igvf/catalog-llm/internal/models"
)

func mockFactories(db *arango.MockClient, dbErr error, svc *llm.MockService, llmErr error) Factories {
	return Factories{
		Arango: func(ctx context.Context, cfg arango.Config) (arango.ClientInterface, error) {
			if dbErr != nil {
				return nil, dbErr
			}
			return db, nil
		},
		LLM: func(cfg openai.LLMConfig) (llm.Service, error) {
			if llmErr != nil {
				return nil, llmErr
			}
			return svc, nil
		},
	}
}

func bootstrapConfig() *config.Config {
	cfg := config.Default()
	cfg.QueryPassword = "secret"
	return cfg
}

func TestBootstrap_Healthy(t *testing.T) {
	db := arango.NewMockClient()
	db.AddCollection(&models.CollectionSchema{Name: "genes"})
	aql := "WITH genes FOR g IN genes LIMIT 5 RETURN g"
	db.Results[aql] = []any{map[string]any{"name": "PAH"}}

	svc := llm.NewMockService(
		`{"category_names": ["genes"]}`,
		"```aql\n"+aql+"\n```",
		"PAH is a gene.",
	)

	cfg := bootstrapConfig()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")

	app, cleanup, err := Bootstrap(context.Background(), cfg, nil, nil, mockFactories(db, nil, svc, nil))
	require.NoError(t, err)
	defer cleanup()

	report, ok := app.Health()
	assert.True(t, ok)
	assert.Equal(t, config.DefaultBackendURL, report.BackendURL)
	require.NoError(t, app.Ready())

	resp, err := app.Handle(context.Background(), "secret", "Tell me about gene PAH?")
	require.NoError(t, err)
	assert.Equal(t, "PAH is a gene.", resp["result"])
	assert.Equal(t, aql, resp["aql_query"])
	assert.Equal(t, Title, resp["title"])

	require.Len(t, svc.Calls, 3)
	assert.Equal(t, "gpt-4o", svc.Calls[0].Options.Model)
	assert.Equal(t, "gpt-4.1", svc.Calls[1].Options.Model)

	st, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	defer st.Close()
	entries, err := st.Recent(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.OutcomeAnswered, entries[0].Outcome)
}

func TestBootstrap_DatabaseDown(t *testing.T) {
	app, cleanup, err := Bootstrap(context.Background(), bootstrapConfig(), nil, nil,
		mockFactories(nil, errors.New("connection refused"), llm.NewMockService(), nil))
	require.NoError(t, err)
	defer cleanup()

	report, ok := app.Health()
	assert.False(t, ok)
	assert.Equal(t, "ERROR: connection refused", report.ArangoDB)
	assert.Equal(t, "OK", report.LLM, "model initialization does not depend on the database")

	_, err = app.Handle(context.Background(), "secret", "q")
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestBootstrap_SchemaError(t *testing.T) {
	db := arango.NewMockClient()
	db.Err = errors.New("unauthorized")

	app, cleanup, err := Bootstrap(context.Background(), bootstrapConfig(), nil, nil,
		mockFactories(db, nil, llm.NewMockService(), nil))
	require.NoError(t, err)
	defer cleanup()

	report, ok := app.Health()
	assert.False(t, ok)
	assert.Contains(t, report.ArangoDB, "unauthorized")
}

func TestBootstrap_ModelMissing(t *testing.T) {
	db := arango.NewMockClient()
	db.AddCollection(&models.CollectionSchema{Name: "genes"})

	app, cleanup, err := Bootstrap(context.Background(), bootstrapConfig(), nil, nil,
		mockFactories(db, nil, nil, errors.New("openai: API key is required")))
	require.NoError(t, err)
	defer cleanup()

	report, ok := app.Health()
	assert.False(t, ok)
	assert.Equal(t, "OK", report.ArangoDB)
	assert.Equal(t, "ERROR: LLM not initialized", report.LLM)
	assert.Error(t, app.Ready())
}

func TestBootstrap_BadExamplesPath(t *testing.T) {
	cfg := bootstrapConfig()
	cfg.Chain.ExamplesPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, _, err := Bootstrap(context.Background(), cfg, nil, nil, mockFactories(arango.NewMockClient(), nil, llm.NewMockService(), nil))
	assert.Error(t, err)
}
