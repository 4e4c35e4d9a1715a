// Package chain turns a question into an AQL query with the language model,
// runs it against the graph, repairs it on failure and summarises the result.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/igvf/catalog-llm/internal/llm"
	"github.com/igvf/catalog-llm/internal/models"
	"github.com/igvf/catalog-llm/internal/prompts"
)

// Defaults.
const (
	DefaultModel                 = "gpt-4.1"
	DefaultTopK                  = 5
	DefaultMaxGenerationAttempts = 5
)

// Output keys.
const (
	KeyResult    = "result"
	KeyQuery     = "query"
	KeyUserInput = "user_input"
	KeyAQLQuery  = "aql_query"
	KeyAQLResult = "aql_result"
)

var (
	// ErrNoQueryInResponse means the model reply had no fenced AQL block.
	ErrNoQueryInResponse = errors.New("unable to extract AQL query from response")
	// ErrMaxAttempts means every generated query failed to execute.
	ErrMaxAttempts = errors.New("maximum amount of AQL query generation attempts reached")
	// ErrWriteQuery means the generated query modifies data.
	ErrWriteQuery = errors.New("AQL query modifies data")
)

var (
	fencedBlock   = regexp.MustCompile("(?s)```(?i:aql)?(.*?)```")
	stringLiteral = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`)
	writeKeyword  = regexp.MustCompile(`(?i)(?:^|[^.\w])(INSERT|UPDATE|REPLACE|REMOVE|UPSERT)\b`)
)

// Executor runs AQL and returns at most limit documents.
type Executor interface {
	Query(ctx context.Context, aql string, limit int) ([]any, error)
}

// Config controls generation and output shaping.
type Config struct {
	Model                 string
	TopK                  int
	MaxGenerationAttempts int
	ReturnAQLQuery        bool
	ReturnAQLResult       bool
	AllowWriteQueries     bool
	Examples              prompts.Examples
	Prompts               *prompts.Set
}

// DefaultConfig returns the catalog defaults with the built-in examples.
func DefaultConfig() Config {
	return Config{
		Model:                 DefaultModel,
		TopK:                  DefaultTopK,
		MaxGenerationAttempts: DefaultMaxGenerationAttempts,
		ReturnAQLQuery:        true,
		ReturnAQLResult:       true,
		Examples:              prompts.DefaultExamples(),
		Prompts:               prompts.Default(),
	}
}

// Input is what the chain is invoked with.
type Input struct {
	Query     string
	UserInput string
}

// Result is the chain output.
type Result struct {
	Values   map[string]any
	AQL      string
	Attempts int
	Usage    models.Usage
}

// Chain is safe for concurrent use.
type Chain struct {
	llm    llm.Service
	db     Executor
	cfg    Config
	logger *slog.Logger
}

// New creates a chain. Zero values in cfg take the defaults.
func New(svc llm.Service, db Executor, cfg Config, logger *slog.Logger) (*Chain, error) {
	if svc == nil {
		return nil, fmt.Errorf("chain: llm service is required")
	}
	if db == nil {
		return nil, fmt.Errorf("chain: query executor is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxGenerationAttempts <= 0 {
		cfg.MaxGenerationAttempts = DefaultMaxGenerationAttempts
	}
	if cfg.Prompts == nil {
		cfg.Prompts = prompts.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{llm: svc, db: db, cfg: cfg, logger: logger}, nil
}

// Config returns the effective configuration.
func (c *Chain) Config() Config {
	return c.cfg
}

// Invoke answers in.UserInput against schema.
func (c *Chain) Invoke(ctx context.Context, schema *models.Schema, in Input) (*Result, error) {
	if schema == nil {
		schema = &models.Schema{}
	}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}

	res := &Result{}

	prompt, err := c.cfg.Prompts.Generation(prompts.GenerationVars{
		Schema:    string(schemaJSON),
		Examples:  c.cfg.Examples.String(),
		UserInput: in.UserInput,
	})
	if err != nil {
		return nil, err
	}
	aql, err := c.generate(ctx, prompt, &res.Usage)
	if err != nil {
		return nil, err
	}

	var rows []any
	for {
		res.Attempts++
		c.logger.Debug("executing AQL", "attempt", res.Attempts, "aql", aql)

		rows, err = c.execute(ctx, aql)
		if err == nil {
			break
		}
		c.logger.Debug("AQL execution failed", "attempt", res.Attempts, "error", err)

		if res.Attempts >= c.cfg.MaxGenerationAttempts {
			return nil, fmt.Errorf("%w (%d): %w", ErrMaxAttempts, res.Attempts, err)
		}

		prompt, err = c.cfg.Prompts.Fix(prompts.FixVars{
			Schema: string(schemaJSON),
			Query:  aql,
			Error:  err.Error(),
		})
		if err != nil {
			return nil, err
		}
		if aql, err = c.generate(ctx, prompt, &res.Usage); err != nil {
			return nil, err
		}
	}
	res.AQL = aql

	resultJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode AQL result: %w", err)
	}
	prompt, err = c.cfg.Prompts.QA(prompts.QAVars{
		Schema:    string(schemaJSON),
		UserInput: in.UserInput,
		Query:     aql,
		Result:    string(resultJSON),
	})
	if err != nil {
		return nil, err
	}
	answer, err := c.chat(ctx, prompt, &res.Usage)
	if err != nil {
		return nil, err
	}

	res.Values = map[string]any{
		KeyResult:    answer,
		KeyQuery:     in.Query,
		KeyUserInput: in.UserInput,
	}
	if c.cfg.ReturnAQLQuery {
		res.Values[KeyAQLQuery] = aql
	}
	if c.cfg.ReturnAQLResult {
		if rows == nil {
			rows = []any{}
		}
		res.Values[KeyAQLResult] = rows
	}
	return res, nil
}

func (c *Chain) execute(ctx context.Context, aql string) ([]any, error) {
	if !c.cfg.AllowWriteQueries {
		if kw := WriteKeyword(aql); kw != "" {
			return nil, fmt.Errorf("%w: %s is not allowed", ErrWriteQuery, kw)
		}
	}
	return c.db.Query(ctx, aql, c.cfg.TopK)
}

func (c *Chain) generate(ctx context.Context, prompt string, usage *models.Usage) (string, error) {
	out, err := c.chat(ctx, prompt, usage)
	if err != nil {
		return "", err
	}
	aql, ok := ExtractAQL(out)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoQueryInResponse, out)
	}
	return aql, nil
}

func (c *Chain) chat(ctx context.Context, prompt string, usage *models.Usage) (string, error) {
	completion, err := c.llm.Chat(ctx, llm.UserMessage(prompt), llm.Options{
		Model:       c.cfg.Model,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("chain: %w", err)
	}
	usage.Add(completion.Usage)
	return completion.Content, nil
}

// ExtractAQL returns the contents of the first triple-backtick block,
// trimmed. An "aql" language tag is dropped.
func ExtractAQL(text string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	aql := strings.TrimSpace(m[1])
	if aql == "" {
		return "", false
	}
	return aql, true
}

// WriteKeyword returns the first data-modification keyword in aql, upper
// cased, ignoring string literals and attribute names. Empty means read-only.
func WriteKeyword(aql string) string {
	stripped := stringLiteral.ReplaceAllString(aql, `""`)
	m := writeKeyword.FindStringSubmatch(stripped)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
