package selector

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are helping to answer questions about the IGVF Catalog, a genomic knowledge graph.
The data is split into categories. Decide which categories hold the data needed to answer the question.
Pick every category that is needed, and only those. Use the category names exactly as listed.

Return the answer in json format with a single key "category_names" whose value is the list of selected category names.

Examples:
question: what diseases are associated with gene PAH?
answer: ["genes", "diseases_genes", "ontology_terms"]

question: Tell me about gene PAH?
answer: ["genes"]

question: What does NEK5 interact with?
answer: ["genes", "proteins", "genes_genes", "proteins_proteins"]

Categories: %s

question: %s
answer:`

// CreatePrompt builds the classification prompt for question over categories.
func CreatePrompt(question string, categories []string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(categories, ", "), question)
}
