package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events <session-id>",
	Short: "Show the event log for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDB()
		if err != nil {
			return err
		}
		defer d.Close()

		events, err := d.GetPipelineEvents(args[0])
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No events recorded.")
			return nil
		}

		w := cmd.OutOrStdout()
		for _, e := range events {
			line := fmt.Sprintf("%s  %-16s", e.Timestamp, e.Event)
			if e.Phase != "" {
				line += fmt.Sprintf("  phase=%s", e.Phase)
			}
			if e.Attempt > 0 {
				line += fmt.Sprintf("  attempt=%d", e.Attempt)
			}
			if e.Detail != "" {
				line += fmt.Sprintf("  %s", e.Detail)
			}
			fmt.Fprintln(w, line)
		}
		return nil
	},
}
