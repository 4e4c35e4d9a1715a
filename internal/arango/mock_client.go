package arango

import (
	"context"
	"sync"

	"github.com/igvf/catalog-llm/internal/models"
)

// MockClient is a mock implementation of ClientInterface for testing.
type MockClient struct {
	mu sync.Mutex

	// Schema is returned by GetSchema
	Schema *models.Schema
	// Results maps an AQL statement to the rows it returns
	Results map[string][]any
	// QueryErrs maps an AQL statement to the error it fails with
	QueryErrs map[string]error
	// Err can be set to make every method return an error
	Err error
	// Queries records every statement passed to Query, in order
	Queries []string
}

// NewMockClient creates a new MockClient for testing.
func NewMockClient() *MockClient {
	return &MockClient{
		Schema:    &models.Schema{},
		Results:   make(map[string][]any),
		QueryErrs: make(map[string]error),
	}
}

// AddCollection adds a collection to the mock schema.
func (m *MockClient) AddCollection(c *models.CollectionSchema) {
	m.Schema.Collections = append(m.Schema.Collections, c)
}

// Ping returns Err
func (m *MockClient) Ping(ctx context.Context) error {
	return m.Err
}

// GetSchema returns the mock schema.
func (m *MockClient) GetSchema(ctx context.Context) (*models.Schema, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Schema, nil
}

// Query records the statement and returns its configured rows, truncated to limit.
func (m *MockClient) Query(ctx context.Context, aql string, limit int) ([]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, aql)
	if m.Err != nil {
		return nil, m.Err
	}
	if err, ok := m.QueryErrs[aql]; ok {
		return nil, err
	}

	rows := m.Results[aql]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]any, len(rows))
	copy(out, rows)
	return out, nil
}

// QueryCount returns the number of Query calls so far.
func (m *MockClient) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}
