package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbcsl/cbcsl/internal/core/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cbcsl configuration",
	Long:  "View and modify cbcsl settings. Command-line flags override these values.",
}

// cbcsl config show - show current config
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadOrDefault()
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Current configuration:")
		for _, key := range config.Keys() {
			value, _ := cfg.Get(key)
			if value == "" {
				value = "(default)"
			}
			fmt.Fprintf(out, "  %-16s %s\n", key+":", value)
		}
		fmt.Fprintf(out, "  %-16s %s\n", "config:", config.SavePath())
	},
}

// cbcsl config path - show config file path
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.SavePath())
	},
}

var configKeysHelp = `Supported keys:
  backend            API generation (graphql, catalog, legacy)
  proxy              Proxy for API requests and the player
  quality            Stream quality (best, 720p, ...)
  player             Player executable (default: streamlink)
  player_loglevel    Player log level (` + strings.Join(config.PlayerLogLevels, ", ") + `)
  pin_variant        Pick the best playlist variant before playing (true/false)
  full_urls          Print full watch URLs in listings (true/false)
  origin             Web origin (default: https://www.cbc.ca)
  timezone           IANA zone for listing times (default: system zone)
  live_category      Live listing category, backend specific
  replay_category    Replay listing category, backend specific
  page_size          Listing page size
  server.port        cbcsl serve listen port (default: 8080)
  server.api_key     cbcsl serve API key`

// cbcsl config set KEY VALUE - set a config value
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in config.yml.

` + configKeysHelp + `

Examples:
  cbcsl config set backend legacy
  cbcsl config set proxy socks5://127.0.0.1:1080
  cbcsl config set timezone America/Toronto`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		cfg := config.LoadOrDefault()
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

// cbcsl config get KEY - get a config value
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value from config.yml.

Examples:
  cbcsl config get backend
  cbcsl config get proxy`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := config.LoadOrDefault().Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

// cbcsl config unset KEY - unset/clear a config value
var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Long: `Unset (clear) a configuration value in config.yml so its default applies.

` + configKeysHelp + `

Examples:
  cbcsl config unset proxy`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		cfg := config.LoadOrDefault()
		if err := cfg.Unset(key); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", key)
		return nil
	},
}

func init() {
	configGetCmd.ValidArgsFunction = completeConfigKeys
	configSetCmd.ValidArgsFunction = completeConfigKeys
	configUnsetCmd.ValidArgsFunction = completeConfigKeys

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}
