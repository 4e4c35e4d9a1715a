// Package schema holds the graph database schema snapshot taken at startup
// and narrows it to the collections relevant to a single question.
package schema

import (
	"github.com/igvf/catalog-llm/internal/models"
)

// Store is a read-only view over the schema fetched at process start.
// It is safe for concurrent use because nothing mutates it after New.
type Store struct {
	schema *models.Schema
	names  []string
}

// New creates a store over the given snapshot. The caller must not modify
// the snapshot afterwards.
func New(s *models.Schema) *Store {
	if s == nil {
		s = &models.Schema{}
	}
	return &Store{
		schema: s,
		names:  s.CollectionNames(),
	}
}

// Names returns the collection names in schema order
func (st *Store) Names() []string {
	out := make([]string, len(st.names))
	copy(out, st.names)
	return out
}

// Len returns the number of collections
func (st *Store) Len() int {
	return len(st.schema.Collections)
}

// Full returns the complete schema. The returned value shares entries with
// the store and must be treated as read-only.
func (st *Store) Full() *models.Schema {
	return st.schema
}

// Narrow returns a new schema containing the graphs and only the selected
// collections, in selection order.
func (st *Store) Narrow(selected []string) *models.Schema {
	return &models.Schema{
		Graphs:      st.schema.Graphs,
		Collections: Narrow(st.schema.Collections, selected),
	}
}

// Narrow picks, for each selected name, the first collection with that exact
// name. Order follows selected; names with no match are dropped. The input
// slice is never modified.
func Narrow(full []*models.CollectionSchema, selected []string) []*models.CollectionSchema {
	out := make([]*models.CollectionSchema, 0, len(selected))
	for _, name := range selected {
		for _, c := range full {
			if c.Name == name {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
