package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cbcsl/cbcsl/internal/core/config"
)

var initDefaults bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create cbcsl config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if initDefaults {
			if err := config.Init(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.SavePath())
			return nil
		}

		// Interactive wizard, seeded from the existing config if present
		cfg, err := config.RunInitWizard()
		if err != nil {
			return err
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nSaved %s\n", config.SavePath())
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initDefaults, "defaults", false, "write the default config without prompting")
	rootCmd.AddCommand(initCmd)
}
