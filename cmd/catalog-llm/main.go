// Command catalog-llm answers natural-language questions about the IGVF
// catalog.
package main

import (
	"os"

	"github.com/igvf/catalog-llm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
