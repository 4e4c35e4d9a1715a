package arango

import (
	"context"

	"github.com/igvf/catalog-llm/internal/models"
)

// ClientInterface defines the contract for graph database operations.
// This interface enables mocking for testing the chain and core packages.
type ClientInterface interface {
	// Ping checks that the server is reachable and the credentials are accepted
	Ping(ctx context.Context) error

	// GetSchema introspects graphs and non-system collections
	GetSchema(ctx context.Context) (*models.Schema, error)

	// Query runs an AQL statement and returns at most limit results.
	// A limit of zero or less returns every result.
	Query(ctx context.Context, aql string, limit int) ([]any, error)
}

// Verify that *Client implements ClientInterface at compile time
var _ ClientInterface = (*Client)(nil)
