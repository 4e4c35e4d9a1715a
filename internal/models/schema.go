package models

// CollectionType is the ArangoDB collection kind
type CollectionType string

const (
	CollectionTypeDocument CollectionType = "document"
	CollectionTypeEdge     CollectionType = "edge"
)

// Schema is the introspected shape of the graph database, rendered into
// prompts as the ArangoDB schema JSON object.
type Schema struct {
	Graphs      []*GraphSchema      `json:"Graph Schema"`
	Collections []*CollectionSchema `json:"Collection Schema"`
}

// GraphSchema describes a named graph and its edge definitions
type GraphSchema struct {
	Name            string            `json:"graph_name"`
	EdgeDefinitions []*EdgeDefinition `json:"edge_definitions"`
}

// EdgeDefinition links an edge collection to the vertex collections it connects
type EdgeDefinition struct {
	Collection string   `json:"collection"`
	From       []string `json:"from"`
	To         []string `json:"to"`
}

// CollectionSchema describes a single collection in the graph database.
// Entries are snapshots taken at startup and must not be modified.
type CollectionSchema struct {
	Name       string         `json:"collection_name"`
	Type       CollectionType `json:"collection_type"`
	Properties []*Property    `json:"properties"`
	Example    map[string]any `json:"example,omitempty"`
}

// Property is a field descriptor derived from a sample document
type Property struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CollectionNames returns the names of the schema's collections in order
func (s *Schema) CollectionNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Collections))
	for _, c := range s.Collections {
		names = append(names, c.Name)
	}
	return names
}

// PropertyType names the JSON type of a decoded document value
func PropertyType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}
