package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cbcsl/cbcsl/internal/core/config"
	"github.com/cbcsl/cbcsl/internal/core/identifier"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for cbcsl.

Bash:
  # Add to ~/.bashrc:
  source <(cbcsl completion bash)

Zsh:
  # Add to ~/.zshrc:
  source <(cbcsl completion zsh)

  # Or install to fpath:
  cbcsl completion zsh > "${fpath[1]}/_cbcsl"

Fish:
  cbcsl completion fish > ~/.config/fish/completions/cbcsl.fish

PowerShell:
  cbcsl completion powershell >> $PROFILE
`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return cmd.Help()
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)

	rootCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// registerFlagCompletions must run after the root flags are defined.
func registerFlagCompletions() {
	rootCmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(identifier.Generations))
		for i, g := range identifier.Generations {
			names[i] = string(g)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.RegisterFlagCompletionFunc("loglevel", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return config.PlayerLogLevels, cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.RegisterFlagCompletionFunc("quality", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"best", "1080p", "720p", "480p", "worst"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// completeConfigKeys completes the first argument of config get/set/unset.
func completeConfigKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return config.Keys(), cobra.ShellCompDirectiveNoFileComp
}
