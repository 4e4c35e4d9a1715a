package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/igvf/catalog-llm/internal/arango"
	"github.com/igvf/catalog-llm/internal/models"
	"github.com/igvf/catalog-llm/internal/schema"
)

var (
	schemaJSON    bool
	schemaVerbose bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema [collection...]",
	Short: "Show the graph schema the service would load",
	Long: `Connect to ArangoDB and print the collections and graphs exactly as the
service reads them at startup. With collection names, print only the schema
the AQL prompt would see after those collections were selected.

Examples:
  catalog-llm schema
  catalog-llm schema --json genes variants_genes`,
	Run: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "Print the schema JSON given to the model")
	schemaCmd.Flags().BoolVarP(&schemaVerbose, "verbose", "v", false, "Show collection properties")
}

func runSchema(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := arango.NewClient(ctx, arango.Config{
		URL:        cfg.Database.URL,
		Database:   cfg.Database.Name,
		Username:   cfg.Database.Username,
		Password:   cfg.Database.Password,
		SampleSize: cfg.Database.SampleSize,
	})
	if err != nil {
		exitError("failed to connect to ArangoDB: %v", err)
	}

	snapshot, err := client.GetSchema(ctx)
	if err != nil {
		exitError("failed to read schema: %v", err)
	}
	s := selectSchema(schema.New(snapshot), args)

	if schemaJSON {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			exitError("failed to encode schema: %v", err)
		}
		fmt.Println(string(data))
		return
	}
	printSchema(os.Stdout, s, schemaVerbose)
}

// selectSchema returns the full snapshot, or the narrowed one when names
// are given.
func selectSchema(st *schema.Store, names []string) *models.Schema {
	if len(names) == 0 {
		return st.Full()
	}
	return st.Narrow(names)
}

func printSchema(w io.Writer, s *models.Schema, verbose bool) {
	cyan := color.New(color.FgCyan)
	magenta := color.New(color.FgMagenta)

	fmt.Fprintf(w, "%d collections, %d graphs\n\n", len(s.Collections), len(s.Graphs))

	for _, c := range s.Collections {
		if c.Type == models.CollectionTypeEdge {
			magenta.Fprintf(w, "  %-40s", c.Name)
		} else {
			cyan.Fprintf(w, "  %-40s", c.Name)
		}
		fmt.Fprintf(w, " %-8s %d properties\n", c.Type, len(c.Properties))
		if verbose {
			for _, p := range c.Properties {
				fmt.Fprintf(w, "      %s: %s\n", p.Name, p.Type)
			}
		}
	}

	for _, g := range s.Graphs {
		fmt.Fprintf(w, "\ngraph %s\n", g.Name)
		for _, e := range g.EdgeDefinitions {
			fmt.Fprintf(w, "  %s: %v -> %v\n", e.Collection, e.From, e.To)
		}
	}
}
