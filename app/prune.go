package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/maintenance"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired sessions once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openAdapter()
		if err != nil {
			return err
		}

		n, err := maintenance.Prune(cmd.Context(), a, time.Now())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d expired sessions deleted\n", n)

		return nil
	},
}
