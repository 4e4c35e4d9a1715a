// Package core holds the application context of the catalog query service:
// the schema snapshot, the selector and chain, startup health, and the ask
// path shared by the HTTP and MCP surfaces.
package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/igvf/catalog-llm/internal/chain"
	"github.com/igvf/catalog-llm/internal/history"
	"github.com/igvf/catalog-llm/internal/metrics"
	"github.com/igvf/catalog-llm/internal/models"
	"github.com/igvf/catalog-llm/internal/schema"
	"github.com/igvf/catalog-llm/internal/selector"
)

// Title is added to every answered query.
const Title = "IGVF Catalog LLM Query"

// Selector picks the collections relevant to a question.
type Selector interface {
	Select(ctx context.Context, question string, names []string) (*selector.Selection, error)
}

// Chain answers a question against a narrowed schema.
type Chain interface {
	Invoke(ctx context.Context, s *models.Schema, in chain.Input) (*chain.Result, error)
}

// Options configures NewApp. Selector and Chain are nil when the model could
// not be initialized; Schema is nil when the graph could not be read.
type Options struct {
	Schema     *schema.Store
	Selector   Selector
	Chain      Chain
	Health     HealthState
	Password   string
	Metrics    *metrics.Metrics
	History    history.Recorder
	Logger     *slog.Logger
	RecordTime func() time.Time
}

// App is the explicit application context built once at startup.
type App struct {
	schema   *schema.Store
	selector Selector
	chain    Chain
	health   HealthState
	password []byte
	metrics  *metrics.Metrics
	history  history.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewApp creates the application context.
func NewApp(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.RecordTime
	if now == nil {
		now = time.Now
	}

	a := &App{
		schema:   opts.Schema,
		selector: opts.Selector,
		chain:    opts.Chain,
		health:   opts.Health,
		password: []byte(opts.Password),
		metrics:  opts.Metrics,
		history:  opts.History,
		logger:   logger,
		now:      now,
	}
	a.metrics.SetHealthy("arangodb", a.health.ArangoOK)
	a.metrics.SetHealthy("llm", a.health.LLMOK)
	return a
}

// Schema returns the schema snapshot, which may be nil.
func (a *App) Schema() *schema.Store {
	return a.schema
}

// Authorize compares password with the configured secret in constant time.
// An unset secret rejects every password.
func (a *App) Authorize(password string) error {
	if len(a.password) == 0 || subtle.ConstantTimeCompare([]byte(password), a.password) != 1 {
		return newError(KindUnauthorized, "", errors.New(MsgWrongPassword))
	}
	return nil
}

// Ready reports whether the model and a non-empty schema are available.
func (a *App) Ready() error {
	if a.selector == nil || a.chain == nil || a.schema == nil || a.schema.Len() == 0 {
		return newError(KindUnavailable, "", ErrNotReady)
	}
	return nil
}

// Handle runs the request state machine once both fields are present:
// authorize, check readiness, then answer. Any password other than the
// secret is rejected whatever the query holds. Every failure is an *Error.
func (a *App) Handle(ctx context.Context, password, query string) (map[string]any, error) {
	if err := a.Authorize(password); err != nil {
		return nil, err
	}
	if err := a.Ready(); err != nil {
		return nil, err
	}
	return a.Ask(ctx, query)
}

// Ask answers question: select collections, narrow the schema, run the
// chain and shape the response. It does not check the password.
func (a *App) Ask(ctx context.Context, question string) (map[string]any, error) {
	if err := a.Ready(); err != nil {
		return nil, err
	}

	start := a.now()
	entry := &history.Entry{Question: question, Timestamp: start}
	var usage models.Usage
	selected, attempts := -1, 0

	finish := func(outcome string, err error) {
		entry.Outcome = outcome
		entry.PromptTokens = usage.PromptTokens
		entry.CompletionTokens = usage.CompletionTokens
		entry.Duration = a.now().Sub(start)
		if err != nil {
			entry.Error = err.Error()
		}

		a.metrics.ObserveAsk(outcome, selected, attempts, usage, entry.Duration)
		a.logger.Info("question processed",
			"outcome", outcome,
			"collections", entry.Collections,
			"attempts", attempts,
			"prompt_tokens", usage.PromptTokens,
			"completion_tokens", usage.CompletionTokens,
			"total_tokens", usage.TotalTokens,
			"requests", usage.Requests,
			"duration_ms", entry.Duration.Milliseconds(),
		)
		a.record(entry)
	}

	sel, err := a.selector.Select(ctx, question, a.schema.Names())
	if err != nil {
		finish(history.OutcomeError, err)
		return nil, newError(KindDownstream, question, err)
	}
	usage.Add(sel.Usage)
	selected = len(sel.Names)
	entry.Collections = sel.Names

	narrowed := a.schema.Narrow(sel.Names)
	if len(narrowed.Collections) == 0 {
		finish(history.OutcomeNoCollections, ErrNoCollections)
		return nil, newError(KindNoCollections, question, ErrNoCollections)
	}

	res, err := a.chain.Invoke(ctx, narrowed, chain.Input{Query: question, UserInput: question})
	if err != nil {
		finish(history.OutcomeError, err)
		return nil, newError(KindDownstream, question, err)
	}
	usage.Add(res.Usage)
	attempts = res.Attempts
	entry.AQL = res.AQL

	finish(history.OutcomeAnswered, nil)
	return BuildResponse(res.Values), nil
}

func (a *App) record(e *history.Entry) {
	if a.history == nil {
		return
	}
	// the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.history.Record(ctx, e); err != nil {
		a.logger.Warn("failed to record question", "error", err)
	}
}

// BuildResponse copies block without the internal aql_examples and
// user_input keys and adds the fixed title.
func BuildResponse(block map[string]any) map[string]any {
	out := make(map[string]any, len(block)+1)
	for k, v := range block {
		if k == "aql_examples" || k == "user_input" {
			continue
		}
		out[k] = v
	}
	out["title"] = Title
	return out
}
