package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/igvf/catalog-llm/internal/deploy"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources [env]",
	Short: "Show the existing AWS resources of a deployment environment",
	Long: `Show and validate the existing AWS resources each environment is
deployed into. Without an argument every environment is shown.`,
	ValidArgs: deploy.Names(),
	Args:      cobra.MaximumNArgs(1),
	Run:       runResources,
}

func runResources(cmd *cobra.Command, args []string) {
	names := deploy.Names()
	if len(args) == 1 {
		names = args
	}

	failed := false
	for i, name := range names {
		env, err := deploy.Lookup(name)
		if err != nil {
			exitError("%v", err)
		}
		if i > 0 {
			fmt.Println()
		}
		if !printEnvironment(os.Stdout, env) {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// printEnvironment writes env and its validation status, returning false
// when validation failed.
func printEnvironment(w io.Writer, env deploy.Environment) bool {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	bold.Fprintf(w, "%s", env.Name)
	fmt.Fprintf(w, " (account %s, %s)\n", env.Account, env.Region)
	fmt.Fprintf(w, "  %-22s %s\n", "vpc", env.VPCID)

	domain := env.Domain.Name
	if domain == "" {
		domain = "(shared infrastructure)"
	}
	fmt.Fprintf(w, "  %-22s %s\n", "domain", domain)

	for _, r := range env.Resources() {
		fmt.Fprintf(w, "  %-22s ", r.Label)
		if r.ARN == "" {
			faint.Fprintln(w, "(shared infrastructure)")
			continue
		}
		fmt.Fprintln(w, r.ARN)
	}

	if err := env.Validate(); err != nil {
		color.New(color.FgRed).Fprintf(w, "  invalid: %v\n", err)
		return false
	}
	color.New(color.FgGreen).Fprintln(w, "  ok")
	return true
}
