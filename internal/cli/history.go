package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/igvf/catalog-llm/internal/history"
)

var (
	historyLimit   int
	historyOutcome string
	historyOneline bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently asked questions",
	Long: `Show questions recorded by the service, newest first. Recording is
enabled by history.path in the config file or CATALOG_LLM_HISTORY.`,
	Args: cobra.NoArgs,
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "n", "n", 20, "Limit the number of entries to show")
	historyCmd.Flags().StringVar(&historyOutcome, "outcome", "", "Only show entries with this outcome (answered|no_collections|error)")
	historyCmd.Flags().BoolVar(&historyOneline, "oneline", false, "Show each entry on a single line")
}

func runHistory(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()
	if cfg.History.Path == "" {
		exitError("question history is not enabled (set history.path)")
	}

	switch historyOutcome {
	case "", history.OutcomeAnswered, history.OutcomeNoCollections, history.OutcomeError:
	default:
		exitError("unknown outcome %q", historyOutcome)
	}

	st, err := history.Open(cfg.History.Path)
	if err != nil {
		exitError("failed to open history: %v", err)
	}
	defer st.Close()

	entries, err := st.Recent(context.Background(), historyLimit, historyOutcome)
	if err != nil {
		exitError("%v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No questions recorded yet")
		return
	}
	printHistory(os.Stdout, entries, historyOneline)
}

func printHistory(w io.Writer, entries []*history.Entry, oneline bool) {
	yellow := color.New(color.FgYellow)

	for _, e := range entries {
		if oneline {
			yellow.Fprintf(w, "%s ", shortID(e.ID))
			outcomeColor(e.Outcome).Fprintf(w, "%-14s ", e.Outcome)
			fmt.Fprintln(w, e.Question)
			continue
		}

		yellow.Fprintf(w, "question %s ", e.ID)
		outcomeColor(e.Outcome).Fprintf(w, "(%s)\n", e.Outcome)
		fmt.Fprintf(w, "Date:        %s\n", e.Timestamp.Format("Mon Jan 2 15:04:05 2006"))
		fmt.Fprintf(w, "Duration:    %s\n", e.Duration)
		fmt.Fprintf(w, "Tokens:      %d prompt, %d completion\n", e.PromptTokens, e.CompletionTokens)
		if len(e.Collections) > 0 {
			fmt.Fprintf(w, "Collections: %v\n", e.Collections)
		}
		fmt.Fprintf(w, "\n    %s\n", e.Question)
		if e.AQL != "" {
			fmt.Fprintf(w, "    %s\n", e.AQL)
		}
		if e.Error != "" {
			color.New(color.FgRed).Fprintf(w, "    %s\n", e.Error)
		}
		fmt.Fprintln(w)
	}
}

func outcomeColor(outcome string) *color.Color {
	switch outcome {
	case history.OutcomeAnswered:
		return color.New(color.FgGreen)
	case history.OutcomeNoCollections:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgRed)
	}
}

// shortID returns first 8 characters of an ID
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
