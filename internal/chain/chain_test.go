package chain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igvf/catalog-llm/internal/arango"
	"github.com/igvf/catalog-llm/internal/llm"
	"github.com/igvf/catalog-llm/internal/models"
)

const genesAQL = "WITH genes FOR g IN genes FILTER g.name == 'PAH' LIMIT 5 RETURN g"

func testSchema() *models.Schema {
	return &models.Schema{
		Collections: []*models.CollectionSchema{
			{Name: "genes", Type: models.CollectionTypeDocument, Properties: []*models.Property{{Name: "name", Type: "string"}}},
		},
	}
}

func newChain(t *testing.T, svc llm.Service, db Executor, mutate func(*Config)) *Chain {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(svc, db, cfg, nil)
	require.NoError(t, err)
	return c
}

func TestInvoke_Success(t *testing.T) {
	svc := llm.NewMockService(
		"```aql\n"+genesAQL+"\n```",
		"PAH is a gene on chromosome 12.",
	)
	db := arango.NewMockClient()
	db.Results[genesAQL] = []any{map[string]any{"name": "PAH", "chr": "chr12"}}

	c := newChain(t, svc, db, nil)
	res, err := c.Invoke(context.Background(), testSchema(), Input{Query: "Tell me about PAH", UserInput: "Tell me about PAH"})
	require.NoError(t, err)

	assert.Equal(t, "PAH is a gene on chromosome 12.", res.Values[KeyResult])
	assert.Equal(t, "Tell me about PAH", res.Values[KeyQuery])
	assert.Equal(t, "Tell me about PAH", res.Values[KeyUserInput])
	assert.Equal(t, genesAQL, res.Values[KeyAQLQuery])
	assert.Equal(t, []any{map[string]any{"name": "PAH", "chr": "chr12"}}, res.Values[KeyAQLResult])
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 2, res.Usage.Requests)
	assert.Equal(t, 30, res.Usage.TotalTokens)

	require.Len(t, svc.Calls, 2)
	gen := svc.Calls[0]
	assert.Equal(t, DefaultModel, gen.Options.Model)
	assert.Equal(t, float64(0), gen.Options.Temperature)
	assert.False(t, gen.Options.JSONMode)
	assert.Contains(t, gen.Messages[0].Content, `"collection_name": "genes"`)
	assert.Contains(t, gen.Messages[0].Content, "# Tell me about gene PAH?")
	assert.Contains(t, svc.Calls[1].Messages[0].Content, `"chr":"chr12"`)
}

func TestInvoke_TopKPassedToExecutor(t *testing.T) {
	svc := llm.NewMockService("```"+genesAQL+"```", "answer")
	db := arango.NewMockClient()
	rows := make([]any, 8)
	for i := range rows {
		rows[i] = i
	}
	db.Results[genesAQL] = rows

	res, err := newChain(t, svc, db, nil).Invoke(context.Background(), testSchema(), Input{UserInput: "q"})
	require.NoError(t, err)
	assert.Len(t, res.Values[KeyAQLResult], DefaultTopK)
}

func TestInvoke_OmitsAQLWhenDisabled(t *testing.T) {
	svc := llm.NewMockService("```"+genesAQL+"```", "answer")
	db := arango.NewMockClient()

	c := newChain(t, svc, db, func(cfg *Config) {
		cfg.ReturnAQLQuery = false
		cfg.ReturnAQLResult = false
	})
	res, err := c.Invoke(context.Background(), testSchema(), Input{UserInput: "q"})
	require.NoError(t, err)
	assert.NotContains(t, res.Values, KeyAQLQuery)
	assert.NotContains(t, res.Values, KeyAQLResult)
	assert.Equal(t, genesAQL, res.AQL)
}

func TestInvoke_FixesFailingQuery(t *testing.T) {
	bad := "FOR g IN gene RETURN g"
	svc := llm.NewMockService(
		"```"+bad+"```",
		"```aql\n"+genesAQL+"\n```",
		"fixed answer",
	)
	db := arango.NewMockClient()
	db.QueryErrs[bad] = errors.New("collection or view not found: gene")
	db.Results[genesAQL] = []any{"PAH"}

	res, err := newChain(t, svc, db, nil).Invoke(context.Background(), testSchema(), Input{UserInput: "q"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, genesAQL, res.Values[KeyAQLQuery])
	assert.Equal(t, []string{bad, genesAQL}, db.Queries)

	fix := svc.Calls[1].Messages[0].Content
	assert.Contains(t, fix, bad)
	assert.Contains(t, fix, "collection or view not found: gene")
}

func TestInvoke_StopsAfterMaxAttempts(t *testing.T) {
	bad := "FOR g IN nothing RETURN g"
	svc := llm.NewMockService()
	svc.Respond = func(messages []llm.Message, opts llm.Options) (string, error) {
		return "```" + bad + "```", nil
	}
	db := arango.NewMockClient()
	db.QueryErrs[bad] = errors.New("collection not found")

	c := newChain(t, svc, db, func(cfg *Config) { cfg.MaxGenerationAttempts = 3 })
	_, err := c.Invoke(context.Background(), testSchema(), Input{UserInput: "q"})
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrMaxAttempts))
	assert.Contains(t, err.Error(), "collection not found")
	assert.Equal(t, 3, db.QueryCount())
	// one generation plus two fixes, no QA
	assert.Equal(t, 3, svc.CallCount())
}

func TestInvoke_NoQueryBlock(t *testing.T) {
	svc := llm.NewMockService("I cannot help with that.")
	db := arango.NewMockClient()

	_, err := newChain(t, svc, db, nil).Invoke(context.Background(), testSchema(), Input{UserInput: "q"})
	assert.True(t, errors.Is(err, ErrNoQueryInResponse))
	assert.Equal(t, 0, db.QueryCount())
}

func TestInvoke_RejectsWriteQuery(t *testing.T) {
	write := "FOR g IN genes REMOVE g IN genes"
	svc := llm.NewMockService("```"+write+"```", "```"+genesAQL+"```", "answer")
	db := arango.NewMockClient()

	res, err := newChain(t, svc, db, nil).Invoke(context.Background(), testSchema(), Input{UserInput: "delete genes"})
	require.NoError(t, err)

	assert.Equal(t, []string{genesAQL}, db.Queries, "write query never reaches the database")
	assert.Equal(t, 2, res.Attempts)
	assert.Contains(t, svc.Calls[1].Messages[0].Content, ErrWriteQuery.Error())
}

func TestInvoke_AllowsWriteQueryWhenConfigured(t *testing.T) {
	write := "FOR g IN genes UPDATE g WITH {seen: true} IN genes"
	svc := llm.NewMockService("```"+write+"```", "done")
	db := arango.NewMockClient()

	c := newChain(t, svc, db, func(cfg *Config) { cfg.AllowWriteQueries = true })
	_, err := c.Invoke(context.Background(), testSchema(), Input{UserInput: "q"})
	require.NoError(t, err)
	assert.Equal(t, []string{write}, db.Queries)
}

func TestInvoke_LLMError(t *testing.T) {
	svc := llm.NewMockService()
	svc.Err = errors.New("rate limited")

	_, err := newChain(t, svc, arango.NewMockClient(), nil).Invoke(context.Background(), testSchema(), Input{UserInput: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 1, svc.CallCount())
}

func TestInvoke_EmptyResultRendersArray(t *testing.T) {
	svc := llm.NewMockService("```"+genesAQL+"```", "nothing found")
	db := arango.NewMockClient()

	res, err := newChain(t, svc, db, nil).Invoke(context.Background(), nil, Input{UserInput: "q"})
	require.NoError(t, err)
	assert.Equal(t, []any{}, res.Values[KeyAQLResult])
	assert.True(t, strings.Contains(svc.Calls[1].Messages[0].Content, "AQL Result:\n[]"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, arango.NewMockClient(), Config{}, nil)
	assert.Error(t, err)
	_, err = New(llm.NewMockService(), nil, Config{}, nil)
	assert.Error(t, err)

	c, err := New(llm.NewMockService(), arango.NewMockClient(), Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Config().Model)
	assert.Equal(t, DefaultTopK, c.Config().TopK)
	assert.Equal(t, DefaultMaxGenerationAttempts, c.Config().MaxGenerationAttempts)
}

func TestExtractAQL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"tagged", "```aql\nFOR d IN genes RETURN d\n```", "FOR d IN genes RETURN d", true},
		{"upper tag", "```AQL\nFOR d IN genes RETURN d```", "FOR d IN genes RETURN d", true},
		{"untagged", "Here:\n```\nFOR d IN genes RETURN d\n```\nthanks", "FOR d IN genes RETURN d", true},
		{"first block wins", "```A```\n```B```", "A", true},
		{"no block", "FOR d IN genes RETURN d", "", false},
		{"empty block", "```aql\n```", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAQL(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteKeyword(t *testing.T) {
	tests := []struct {
		aql  string
		want string
	}{
		{"FOR g IN genes RETURN g", ""},
		{"FOR g IN genes REMOVE g IN genes", "REMOVE"},
		{"insert {a: 1} into genes", "INSERT"},
		{"UPSERT {a: 1} INSERT {a: 1} UPDATE {} IN genes", "UPSERT"},
		{"FOR g IN genes FILTER g.name == 'REMOVE' RETURN g", ""},
		{"FOR g IN genes RETURN g.update", ""},
		{"FOR g IN genes RETURN g.updated_at", ""},
		{"REPLACE {_key: 'x'} IN genes", "REPLACE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WriteKeyword(tt.aql), tt.aql)
	}
}
