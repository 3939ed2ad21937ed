// File: cmd/decisions.go
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cliffbreak/actiongate/internal/journal"
)

var decisionsLimit int

// decisionsCmd prints recent entries from the decision journal: guard
// blocks, human resolutions, and timeouts.
var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Show recent guard blocks and approval outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := appConfig.Journal.Path
		if path == "" {
			return fmt.Errorf("journal.path is not configured; nothing to show")
		}

		jnl, err := journal.Open(path)
		if err != nil {
			return err
		}
		defer jnl.Close()

		entries, err := jnl.Recent(cmd.Context(), decisionsLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no decisions recorded")
			return nil
		}

		for _, e := range entries {
			verdict := ""
			if e.Kind == journal.KindResolved {
				verdict = "  denied"
				if e.Approved {
					verdict = "  approved"
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s %s %s%s\n",
				e.At.Local().Format(time.DateTime), e.Kind, e.Domain, e.Detail, verdict)
		}
		return nil
	},
}

func init() {
	decisionsCmd.Flags().IntVarP(&decisionsLimit, "limit", "n", 20, "maximum entries to show")
	rootCmd.AddCommand(decisionsCmd)
}
