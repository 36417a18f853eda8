package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cbcsl/cbcsl/internal/updater"
)

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update cbcsl to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !updateCheckOnly {
			return updater.Update(cmd.Context(), cmd.OutOrStdout())
		}

		latest, newer, err := updater.CheckUpdate(cmd.Context())
		if err != nil {
			return err
		}
		switch {
		case latest == nil:
			fmt.Fprintln(cmd.OutOrStdout(), "No releases found")
		case newer:
			fmt.Fprintf(cmd.OutOrStdout(), "%s is available, run 'cbcsl update'\n", latest.Version())
		default:
			fmt.Fprintln(cmd.OutOrStdout(), "Already up to date")
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "only check whether an update is available")
	rootCmd.AddCommand(updateCmd)
}
