package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion script",
		Long: `Generate a shell completion script for catalog-llm.

Bash:
  $ source <(catalog-llm completion bash)

Zsh:
  $ catalog-llm completion zsh > "${fpath[1]}/_catalog-llm"

Fish:
  $ catalog-llm completion fish > ~/.config/fish/completions/catalog-llm.fish
`,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "zsh":
				return rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				return rootCmd.GenFishCompletion(os.Stdout, true)
			default:
				return rootCmd.GenBashCompletionV2(os.Stdout, true)
			}
		},
	})
}
