// Package selector asks the language model which graph collections are
// relevant to a question, so that only their schema reaches the query
// generation prompt.
package selector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/igvf/catalog-llm/internal/llm"
	"github.com/igvf/catalog-llm/internal/models"
)

// DefaultModel is the model used for classification.
const DefaultModel = "gpt-4o"

// ErrMalformedSelection matches any *MalformedSelectionError.
var ErrMalformedSelection = errors.New("malformed collection selection")

// responseSchema is the contract the model's JSON object must satisfy.
const responseSchema = `{
	"type": "object",
	"required": ["category_names"],
	"properties": {
		"category_names": {
			"type": "array",
			"items": {"type": "string"}
		}
	}
}`

// MalformedSelectionError carries the raw model output that could not be
// read as a selection.
type MalformedSelectionError struct {
	Raw    string
	Reason string
}

func (e *MalformedSelectionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedSelection.Error(), e.Reason)
}

// Is reports whether target is ErrMalformedSelection.
func (e *MalformedSelectionError) Is(target error) bool {
	return target == ErrMalformedSelection
}

// Selection is the ordered list of collection names the model chose.
type Selection struct {
	Names []string
	Usage models.Usage
}

// Selector classifies questions into collections.
type Selector struct {
	llm    llm.Service
	model  string
	schema *gojsonschema.Schema
}

// New creates a selector using the given model. An empty model uses DefaultModel.
func New(svc llm.Service, model string) (*Selector, error) {
	if svc == nil {
		return nil, fmt.Errorf("selector: llm service is required")
	}
	if model == "" {
		model = DefaultModel
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("selector: compile response schema: %w", err)
	}

	return &Selector{llm: svc, model: model, schema: schema}, nil
}

// Select returns the collections relevant to question, chosen from names.
// Transport and API errors are returned as-is; output that is not a JSON
// object with a string array category_names yields *MalformedSelectionError.
func (s *Selector) Select(ctx context.Context, question string, names []string) (*Selection, error) {
	completion, err := s.llm.Chat(ctx, llm.UserMessage(CreatePrompt(question, names)), llm.Options{
		Model:       s.model,
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("select collections: %w", err)
	}

	selected, err := s.parse(completion.Content)
	if err != nil {
		return nil, err
	}

	return &Selection{Names: selected, Usage: completion.Usage}, nil
}

func (s *Selector) parse(raw string) ([]string, error) {
	if !json.Valid([]byte(raw)) {
		return nil, &MalformedSelectionError{Raw: raw, Reason: "response is not valid JSON"}
	}

	result, err := s.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, &MalformedSelectionError{Raw: raw, Reason: err.Error()}
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			reasons = append(reasons, re.String())
		}
		return nil, &MalformedSelectionError{Raw: raw, Reason: strings.Join(reasons, "; ")}
	}

	var parsed struct {
		CategoryNames []string `json:"category_names"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &MalformedSelectionError{Raw: raw, Reason: err.Error()}
	}
	if parsed.CategoryNames == nil {
		parsed.CategoryNames = []string{}
	}
	return parsed.CategoryNames, nil
}
