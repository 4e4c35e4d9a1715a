package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionNames(t *testing.T) {
	s := &Schema{Collections: []*CollectionSchema{
		{Name: "genes"},
		{Name: "variants"},
		{Name: "diseases"},
	}}
	assert.Equal(t, []string{"genes", "variants", "diseases"}, s.CollectionNames())
}

func TestCollectionNames_Empty(t *testing.T) {
	assert.Empty(t, (&Schema{}).CollectionNames())

	var s *Schema
	assert.Nil(t, s.CollectionNames())
}

func TestSchemaJSONKeys(t *testing.T) {
	s := &Schema{
		Graphs: []*GraphSchema{{Name: "catalog"}},
		Collections: []*CollectionSchema{{
			Name:       "genes",
			Type:       CollectionTypeDocument,
			Properties: []*Property{{Name: "_key", Type: "string"}},
		}},
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "Graph Schema")
	assert.Contains(t, raw, "Collection Schema")
	assert.Contains(t, string(data), `"collection_name":"genes"`)
}

func TestPropertyType(t *testing.T) {
	assert.Equal(t, "string", PropertyType("x"))
	assert.Equal(t, "number", PropertyType(float64(1)))
	assert.Equal(t, "boolean", PropertyType(true))
	assert.Equal(t, "array", PropertyType([]any{1}))
	assert.Equal(t, "object", PropertyType(map[string]any{}))
	assert.Equal(t, "null", PropertyType(nil))
}

func TestUsageAdd(t *testing.T) {
	u := Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3, Requests: 1}
	u.Add(Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30, Requests: 1})
	assert.Equal(t, Usage{PromptTokens: 11, CompletionTokens: 22, TotalTokens: 33, Requests: 2}, u)
}
