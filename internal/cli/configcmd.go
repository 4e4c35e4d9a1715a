package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/igvf/catalog-llm/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after the config file, environment and flags
are applied, as TOML. Secrets are never printed; only whether each one is set.`,
	Args: cobra.NoArgs,
	Run:  runConfig,
}

func runConfig(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()
	if err := printConfig(os.Stdout, cfg); err != nil {
		exitError("%v", err)
	}
}

func printConfig(w io.Writer, cfg *config.Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprint(w, string(data))

	fmt.Fprintln(w)
	for _, s := range []struct {
		env string
		set bool
	}{
		{config.EnvDBUsername, cfg.Database.Username != ""},
		{config.EnvDBPassword, cfg.Database.Password != ""},
		{config.EnvQueryPassword + " (or " + config.EnvDBPassword + ")", cfg.QueryPassword != ""},
		{config.EnvOpenAIKey, cfg.OpenAI.APIKey != ""},
	} {
		fmt.Fprintf(w, "# %-50s ", s.env)
		if s.set {
			color.New(color.FgGreen).Fprintln(w, "set")
		} else {
			color.New(color.FgRed).Fprintln(w, "not set")
		}
	}
	return nil
}
