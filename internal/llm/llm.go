// Package llm defines the language model port used for collection selection
// and AQL generation.
package llm

import (
	"context"
	"errors"

	"github.com/igvf/catalog-llm/internal/models"
)

// Roles accepted in a chat message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNoChoices indicates the provider returned an empty completion.
var ErrNoChoices = errors.New("no response choices returned")

// Service provides chat completions.
type Service interface {
	// Chat sends the messages and returns the first completion.
	Chat(ctx context.Context, messages []Message, opts Options) (*Completion, error)

	// ModelName returns the default model.
	ModelName() string

	// Ping validates the service is reachable with the configured credentials.
	Ping(ctx context.Context) error
}

// Message is a single chat message.
type Message struct {
	Role    string
	Content string
}

// Options configures a single completion.
type Options struct {
	// Model overrides the service default when set.
	Model string

	// Temperature controls randomness. Zero is sent as-is for deterministic output.
	Temperature float64

	// MaxTokens caps the completion length when positive.
	MaxTokens int

	// JSONMode forces the provider to return a JSON object.
	JSONMode bool
}

// Completion is the model output and its token accounting.
type Completion struct {
	Content string
	Model   string
	Usage   models.Usage
}

// UserMessage builds a single-message conversation.
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}
