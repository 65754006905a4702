package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeworks/genforge/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sessions that are not yet completed",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.DefaultStore()
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}

		sessions, err := store.List("")
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		w := cmd.OutOrStdout()
		active := 0
		for _, s := range sessions {
			if s.Status == session.StatusCompleted {
				continue
			}
			active++
			phase := "-"
			if def := s.Definition(s.CurrentIndex); def != nil {
				phase = def.Name
			}
			fmt.Fprintf(w, "%s  %-16s %-12s next phase: %s\n", s.ID, s.Pipeline, s.Status, phase)
		}
		if active == 0 {
			fmt.Fprintln(w, "No active sessions.")
		}
		return nil
	},
}
