package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/igvf/catalog-llm/internal/models"
)

// MockService is a scripted Service for testing. Responses are returned in
// order; Respond, when set, takes precedence.
type MockService struct {
	mu sync.Mutex

	Model     string
	Responses []string
	Respond   func(messages []Message, opts Options) (string, error)
	Err       error
	PingErr   error
	// Usage is attached to every completion
	Usage models.Usage

	Calls []MockCall
}

// MockCall records one Chat invocation.
type MockCall struct {
	Messages []Message
	Options  Options
}

// Verify that *MockService implements Service at compile time
var _ Service = (*MockService)(nil)

// NewMockService returns a mock that answers with the given responses in order.
func NewMockService(responses ...string) *MockService {
	return &MockService{
		Model:     "mock-model",
		Responses: responses,
		Usage:     models.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, Requests: 1},
	}
}

// Chat returns the next scripted response.
func (m *MockService) Chat(ctx context.Context, messages []Message, opts Options) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Messages: messages, Options: opts})
	if m.Err != nil {
		return nil, m.Err
	}

	var content string
	if m.Respond != nil {
		out, err := m.Respond(messages, opts)
		if err != nil {
			return nil, err
		}
		content = out
	} else {
		if len(m.Responses) == 0 {
			return nil, fmt.Errorf("mock: no scripted response for call %d", len(m.Calls))
		}
		content = m.Responses[0]
		m.Responses = m.Responses[1:]
	}

	return &Completion{Content: content, Model: m.ModelName(), Usage: m.Usage}, nil
}

// ModelName returns the mock model name.
func (m *MockService) ModelName() string {
	return m.Model
}

// Ping returns PingErr.
func (m *MockService) Ping(ctx context.Context) error {
	return m.PingErr
}

// CallCount returns the number of Chat calls so far.
func (m *MockService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
