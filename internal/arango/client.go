// Package arango provides a client wrapper for the IGVF catalog ArangoDB
// database. It handles connection setup, schema introspection and bounded
// AQL execution.
package arango

import (
	"context"
	"fmt"
	"sort"
	"strings"

	driver "github.com/arangodb/go-driver"
	arangohttp "github.com/arangodb/go-driver/http"

	"github.com/igvf/catalog-llm/internal/models"
)

// DefaultDatabase is the catalog database name
const DefaultDatabase = "igvf"

const (
	sampleQuery = "FOR doc IN @@collection LIMIT @limit RETURN doc"
	graphsQuery = "FOR g IN _graphs RETURN { name: g._key, edgeDefinitions: g.edgeDefinitions }"
)

// Config holds connection settings
type Config struct {
	URL      string
	Database string
	Username string
	Password string
	// SampleSize is the number of documents read per collection to derive
	// its properties (default 1)
	SampleSize int
}

// Client wraps the ArangoDB driver with catalog-specific functionality
type Client struct {
	client     driver.Client
	db         driver.Database
	sampleSize int
}

// NewClient connects to the server and opens the configured database
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 1
	}

	// The driver appends API paths to the endpoint, so a trailing slash
	// would produce "//_db/...".
	endpoint := strings.TrimRight(cfg.URL, "/")

	conn, err := arangohttp.NewConnection(arangohttp.ConnectionConfig{
		Endpoints: []string{endpoint},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ArangoDB connection: %w", err)
	}

	client, err := driver.NewClient(driver.ClientConfig{
		Connection:     conn,
		Authentication: driver.BasicAuthentication(cfg.Username, cfg.Password),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ArangoDB client: %w", err)
	}

	db, err := client.Database(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", cfg.Database, err)
	}

	return &Client{
		client:     client,
		db:         db,
		sampleSize: cfg.SampleSize,
	}, nil
}

// Ping checks if ArangoDB is reachable
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.Version(ctx); err != nil {
		return fmt.Errorf("failed to connect to ArangoDB: %w", err)
	}
	return nil
}

// GetSchema builds the graph and collection schema. Each non-empty,
// non-system collection contributes one entry whose properties are the
// union of keys across the sampled documents.
func (c *Client) GetSchema(ctx context.Context) (*models.Schema, error) {
	graphs, err := c.getGraphs(ctx)
	if err != nil {
		return nil, err
	}

	cols, err := c.db.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name() < cols[j].Name() })

	result := &models.Schema{
		Graphs:      graphs,
		Collections: make([]*models.CollectionSchema, 0, len(cols)),
	}

	for _, col := range cols {
		name := col.Name()
		if strings.HasPrefix(name, "_") {
			continue
		}

		count, err := col.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count collection %s: %w", name, err)
		}
		if count == 0 {
			continue
		}

		entry, err := c.describeCollection(ctx, name)
		if err != nil {
			return nil, err
		}
		result.Collections = append(result.Collections, entry)
	}

	return result, nil
}

func (c *Client) describeCollection(ctx context.Context, name string) (*models.CollectionSchema, error) {
	docs, err := c.query(ctx, sampleQuery, map[string]interface{}{
		"@collection": name,
		"limit":       c.sampleSize,
	}, c.sampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to sample collection %s: %w", name, err)
	}

	example := make(map[string]any)
	for _, d := range docs {
		m, ok := d.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range m {
			example[k] = v
		}
	}

	keys := make([]string, 0, len(example))
	for k := range example {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	props := make([]*models.Property, 0, len(keys))
	for _, k := range keys {
		props = append(props, &models.Property{Name: k, Type: models.PropertyType(example[k])})
	}

	colType := models.CollectionTypeDocument
	_, hasFrom := example["_from"]
	_, hasTo := example["_to"]
	if hasFrom && hasTo {
		colType = models.CollectionTypeEdge
	}

	return &models.CollectionSchema{
		Name:       name,
		Type:       colType,
		Properties: props,
		Example:    example,
	}, nil
}

func (c *Client) getGraphs(ctx context.Context) ([]*models.GraphSchema, error) {
	rows, err := c.query(ctx, graphsQuery, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	graphs := make([]*models.GraphSchema, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			continue
		}
		g := &models.GraphSchema{}
		g.Name, _ = m["name"].(string)

		defs, _ := m["edgeDefinitions"].([]any)
		for _, d := range defs {
			dm, ok := d.(map[string]any)
			if !ok {
				continue
			}
			def := &models.EdgeDefinition{
				From: toStrings(dm["from"]),
				To:   toStrings(dm["to"]),
			}
			def.Collection, _ = dm["collection"].(string)
			g.EdgeDefinitions = append(g.EdgeDefinitions, def)
		}
		graphs = append(graphs, g)
	}

	sort.Slice(graphs, func(i, j int) bool { return graphs[i].Name < graphs[j].Name })
	return graphs, nil
}

// Query runs an AQL statement and returns at most limit results
func (c *Client) Query(ctx context.Context, aql string, limit int) ([]any, error) {
	return c.query(ctx, aql, nil, limit)
}

func (c *Client) query(ctx context.Context, aql string, bindVars map[string]interface{}, limit int) ([]any, error) {
	if limit > 0 {
		ctx = driver.WithQueryBatchSize(ctx, limit)
	}

	cursor, err := c.db.Query(ctx, aql, bindVars)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	results := make([]any, 0)
	for limit <= 0 || len(results) < limit {
		var doc any
		if _, err := cursor.ReadDocument(ctx, &doc); err != nil {
			if driver.IsNoMoreDocuments(err) {
				break
			}
			return nil, fmt.Errorf("failed to read query result: %w", err)
		}
		results = append(results, doc)
	}

	return results, nil
}

func toStrings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
