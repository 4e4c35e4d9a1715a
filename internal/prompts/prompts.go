// Package prompts holds the model prompt templates used to generate, repair
// and explain AQL queries against the catalog graph.
package prompts

import (
	"bytes"
	"fmt"
	"text/template"
)

// GenerationTemplate asks the model to write an AQL query for a question.
const GenerationTemplate = `Task: Generate an ArangoDB Query Language (AQL) query from a User Input.

You are an ArangoDB Query Language (AQL) expert responsible for translating a ` + "`User Input`" + ` into an ArangoDB Query Language (AQL) query.

You are given an ` + "`ArangoDB Schema`" + `. It is a JSON Object containing:
1. ` + "`Graph Schema`" + `: Lists all Graphs within the ArangoDB Database Instance, along with their Edge Relationships.
2. ` + "`Collection Schema`" + `: Lists all Collections within the ArangoDB Database Instance, along with their document/edge properties and a document/edge example.

You may also be given a set of ` + "`AQL Query Examples`" + ` to help you create the ` + "`AQL Query`" + `. If provided, the ` + "`AQL Query Examples`" + ` should be used as a reference, similar to how ` + "`ArangoDB Schema`" + ` should be used.

Things you should do:
- Think step by step.
- Rely on ` + "`ArangoDB Schema`" + ` and ` + "`AQL Query Examples`" + ` (if provided) to generate the query.
- Begin the ` + "`AQL Query`" + ` by the ` + "`WITH`" + ` AQL keyword to specify all of the ArangoDB Collections required.
- Always add LIMIT 5 to the query unless the User Input asks for a specific number of results.
- Return the ` + "`AQL Query`" + ` wrapped in 3 backticks (` + "```" + `).
- Use only the provided relationship types and properties in the ` + "`ArangoDB Schema`" + ` and any ` + "`AQL Query Examples`" + ` queries.
- Only answer to requests related to generating an AQL Query.
- If a request is unrelated to generating AQL Query, say that you cannot help the user.

Things you should not do:
- Do not use any properties/relationships that can't be inferred from the ` + "`ArangoDB Schema`" + ` or the ` + "`AQL Query Examples`" + `.
- Do not include any text except the generated AQL Query.
- Do not provide explanations or apologies in your responses.
- Do not generate an AQL Query that removes or deletes any data.

Under no circumstance should you generate an AQL Query that deletes any data whatsoever.

ArangoDB Schema:
{{.Schema}}

AQL Query Examples (Optional):
{{.Examples}}

User Input:
{{.UserInput}}

AQL Query:
`

// FixTemplate asks the model to correct a query that failed to execute.
const FixTemplate = `Task: Address the ArangoDB Query Language (AQL) error message of an ArangoDB Query Language query.

You are an ArangoDB Query Language (AQL) expert responsible for correcting the provided ` + "`AQL Query`" + ` based on the provided ` + "`AQL Error`" + `.

The ` + "`AQL Error`" + ` explains why the ` + "`AQL Query`" + ` could not be executed in the database.
The ` + "`AQL Error`" + ` may also contain the position of the error relative to the total number of lines of the ` + "`AQL Query`" + `.
For example, 'error X at position 2:5' denotes that the error X occurs on line 2, column 5 of the ` + "`AQL Query`" + `.

You are also given the ` + "`ArangoDB Schema`" + `. It is a JSON Object containing:
1. ` + "`Graph Schema`" + `: Lists all Graphs within the ArangoDB Database Instance, along with their Edge Relationships.
2. ` + "`Collection Schema`" + `: Lists all Collections within the ArangoDB Database Instance, along with their document/edge properties and a document/edge example.

You will output the ` + "`Corrected AQL Query`" + ` wrapped in 3 backticks (` + "```" + `). Do not include any text except the Corrected AQL Query.

Remember to think step by step.

ArangoDB Schema:
{{.Schema}}

AQL Query:
{{.Query}}

AQL Error:
{{.Error}}

Corrected AQL Query:
`

// QATemplate asks the model to summarise a query result for the user.
const QATemplate = `Task: Generate a natural language ` + "`Summary`" + ` from the results of an ArangoDB Query Language query.

You are an ArangoDB Query Language (AQL) expert responsible for creating a well-written ` + "`Summary`" + ` from the ` + "`User Input`" + ` and associated ` + "`AQL Result`" + `.

A user has executed an ArangoDB Query Language query, which has returned the AQL Result in JSON format.
You are responsible for creating an ` + "`Summary`" + ` based on the AQL Result.

You are given the following information:
- ` + "`ArangoDB Schema`" + `: contains a schema representation of the user's ArangoDB Database.
- ` + "`User Input`" + `: the original question/request of the user, which has been translated into an AQL Query.
- ` + "`AQL Query`" + `: the AQL equivalent of the ` + "`User Input`" + `, translated by another AI Model. Should you deem it to be incorrect, suggest a different AQL Query.
- ` + "`AQL Result`" + `: the JSON output returned by executing the ` + "`AQL Query`" + ` within the ArangoDB Database.

Remember to think step by step.

Your ` + "`Summary`" + ` should sound like it is a response to the ` + "`User Input`" + `.
Your ` + "`Summary`" + ` should not include any mention of the ` + "`AQL Query`" + ` or the ` + "`AQL Result`" + `.

ArangoDB Schema:
{{.Schema}}

User Input:
{{.UserInput}}

AQL Query:
{{.Query}}

AQL Result:
{{.Result}}
`

// GenerationVars are the inputs of GenerationTemplate.
type GenerationVars struct {
	Schema    string
	Examples  string
	UserInput string
}

// FixVars are the inputs of FixTemplate.
type FixVars struct {
	Schema string
	Query  string
	Error  string
}

// QAVars are the inputs of QATemplate.
type QAVars struct {
	Schema    string
	UserInput string
	Query     string
	Result    string
}

// Set is a parsed group of the three chain prompts.
type Set struct {
	generation *template.Template
	fix        *template.Template
	qa         *template.Template
}

// Default returns the built-in prompt set.
func Default() *Set {
	s, err := NewSet(GenerationTemplate, FixTemplate, QATemplate)
	if err != nil {
		panic(fmt.Sprintf("prompts: built-in templates: %v", err))
	}
	return s
}

// NewSet parses custom templates. Empty arguments fall back to the built-ins.
func NewSet(generation, fix, qa string) (*Set, error) {
	if generation == "" {
		generation = GenerationTemplate
	}
	if fix == "" {
		fix = FixTemplate
	}
	if qa == "" {
		qa = QATemplate
	}

	var s Set
	var err error
	if s.generation, err = parse("generation", generation); err != nil {
		return nil, err
	}
	if s.fix, err = parse("fix", fix); err != nil {
		return nil, err
	}
	if s.qa, err = parse("qa", qa); err != nil {
		return nil, err
	}
	return &s, nil
}

func parse(name, text string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s prompt: %w", name, err)
	}
	return t, nil
}

// Generation renders the AQL generation prompt.
func (s *Set) Generation(v GenerationVars) (string, error) {
	return render(s.generation, v)
}

// Fix renders the AQL fix prompt.
func (s *Set) Fix(v FixVars) (string, error) {
	return render(s.fix, v)
}

// QA renders the answer prompt.
func (s *Set) QA(v QAVars) (string, error) {
	return render(s.qa, v)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}
