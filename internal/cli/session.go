package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgeworks/genforge/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and manage pipeline sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.DefaultStore()
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}

		statusFilter, _ := cmd.Flags().GetString("status")
		sessions, err := store.List(statusFilter)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-38s %-16s %-12s %-8s %s\n", "ID", "PIPELINE", "STATUS", "PHASES", "STARTED")
		fmt.Fprintf(w, "%-38s %-16s %-12s %-8s %s\n",
			strings.Repeat("-", 38),
			strings.Repeat("-", 16),
			strings.Repeat("-", 12),
			strings.Repeat("-", 8),
			strings.Repeat("-", 7))
		for _, s := range sessions {
			fmt.Fprintf(w, "%-38s %-16s %-12s %3d/%-4d %s\n",
				s.ID, s.Pipeline, s.Status, len(s.Results), len(s.Phases),
				s.StartedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show detailed session state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.DefaultStore()
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}

		sess, err := store.Get(args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Session %s: %s\n", sess.ID, sess.Pipeline)
		fmt.Fprintf(w, "  Status:  %s\n", sess.Status)
		fmt.Fprintf(w, "  Started: %s\n", sess.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  Phase:   %d of %d\n", sess.CurrentIndex, len(sess.Phases))

		if len(sess.Context) > 0 {
			fmt.Fprintln(w, "  Context:")
			for k, v := range sess.Context {
				fmt.Fprintf(w, "    %s: %s\n", k, v)
			}
		}

		if len(sess.Results) > 0 {
			fmt.Fprintln(w, "  Results:")
			for _, r := range sess.Results {
				fmt.Fprintf(w, "    %s: %s (%dms, %d artifacts, %d warnings)\n",
					r.Phase, r.Status, r.Metrics.DurationMs, len(r.Artifacts), len(r.Warnings))
				if r.Error != "" {
					fmt.Fprintf(w, "      error: %s\n", r.Error)
				}
			}
		}

		if sess.Summary != nil {
			fmt.Fprintf(w, "  Summary: %d file(s), %d line(s), %d test(s), est. coverage %.1f%%\n",
				sess.Summary.TotalFiles, sess.Summary.TotalLines,
				sess.Summary.GeneratedTests, sess.Summary.EstimatedCoverage)
		}
		return nil
	},
}

var sessionArtifactsCmd = &cobra.Command{
	Use:   "artifacts <session-id>",
	Short: "List artifacts produced by a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.DefaultStore()
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}

		sess, err := store.Get(args[0])
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		count := 0
		for _, r := range sess.Results {
			for _, a := range r.Artifacts {
				fmt.Fprintf(w, "%-20s %s\n", r.Phase, a)
				count++
			}
		}
		if count == 0 {
			fmt.Fprintln(w, "No artifacts recorded.")
		}
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.DefaultStore()
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionArtifactsCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)

	sessionListCmd.Flags().String("status", "", "Filter by status (initializing, running, completed, failed)")
}
