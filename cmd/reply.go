// File: cmd/reply.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cliffbreak/actiongate/internal/notify"
)

// replyCmd validates an approval reply against the grammar the inbound
// channel handler accepts. Useful when wiring a new notification transport:
// whatever the transport hands to HandleReply must parse here.
var replyCmd = &cobra.Command{
	Use:   "reply <text...>",
	Short: "Validate and normalize an approval reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := notify.ParseReply(strings.Join(args, " "))
		if err != nil {
			return err
		}
		verdict := "no"
		if r.Approved {
			verdict = "yes"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "approve %s %s\n", r.ID, verdict)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replyCmd)
}
