package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var defaultExamples []byte

// Example is one few-shot question/AQL pair.
type Example struct {
	Question string `yaml:"question"`
	Query    string `yaml:"query"`
}

type exampleFile struct {
	Examples []Example `yaml:"examples"`
}

// Examples is an ordered list of few-shot examples.
type Examples []Example

// DefaultExamples returns the built-in catalog examples.
func DefaultExamples() Examples {
	ex, err := ParseExamples(defaultExamples)
	if err != nil {
		panic(fmt.Sprintf("prompts: built-in examples: %v", err))
	}
	return ex
}

// LoadExamples reads examples from a YAML file. An empty path returns the
// built-in examples.
func LoadExamples(path string) (Examples, error) {
	if path == "" {
		return DefaultExamples(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read examples: %w", err)
	}
	return ParseExamples(data)
}

// ParseExamples decodes a YAML document with a top-level examples list.
func ParseExamples(data []byte) (Examples, error) {
	var f exampleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse examples: %w", err)
	}
	for i, ex := range f.Examples {
		if strings.TrimSpace(ex.Query) == "" {
			return nil, fmt.Errorf("parse examples: entry %d has no query", i)
		}
	}
	return Examples(f.Examples), nil
}

// String renders the examples the way the generation prompt expects them:
// a commented question line followed by its query.
func (e Examples) String() string {
	var b strings.Builder
	for i, ex := range e {
		if i > 0 {
			b.WriteString("\n")
		}
		if ex.Question != "" {
			b.WriteString("# ")
			b.WriteString(ex.Question)
			b.WriteString("\n")
		}
		b.WriteString(strings.TrimRight(ex.Query, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
