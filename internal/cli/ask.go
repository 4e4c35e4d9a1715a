package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/igvf/catalog-llm/internal/core"
)

var (
	askShowAQL bool
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question from the command line",
	Long: `Answer one question with the same path the HTTP service uses, without
the query password. Logs go to stderr.

Examples:
  catalog-llm ask "Tell me about the gene PAH"
  catalog-llm ask --aql "What variants are associated with asthma?"`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowAQL, "aql", false, "Show the AQL query and its result")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full response as JSON")
}

func runAsk(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, cleanup, err := core.Bootstrap(ctx, cfg, nil, logger, core.Factories{})
	if err != nil {
		exitError("%v", err)
	}
	defer cleanup()

	question := strings.Join(args, " ")
	resp, err := app.Ask(ctx, question)
	if err != nil {
		if errors.Is(err, core.ErrNotReady) {
			report, _ := app.Health()
			exitError("%v (arangodb: %s, llm: %s)", err, report.ArangoDB, report.LLM)
		}
		exitError("%v", err)
	}

	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			exitError("failed to encode response: %v", err)
		}
		return
	}
	printAnswer(os.Stdout, resp, askShowAQL)
}

func printAnswer(w io.Writer, resp map[string]any, showAQL bool) {
	color.New(color.FgGreen).Fprintf(w, "%v\n", resp["result"])
	if !showAQL {
		return
	}

	if q, ok := resp["aql_query"]; ok {
		fmt.Fprintln(w)
		color.New(color.FgYellow).Fprintln(w, "AQL:")
		fmt.Fprintf(w, "  %v\n", q)
	}
	if r, ok := resp["aql_result"]; ok {
		data, err := json.MarshalIndent(r, "  ", "  ")
		if err != nil {
			return
		}
		fmt.Fprintln(w)
		color.New(color.FgYellow).Fprintln(w, "Result:")
		fmt.Fprintf(w, "  %s\n", data)
	}
}
