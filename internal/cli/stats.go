package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeworks/genforge/internal/analytics"
)

var statsSince string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate generation and correction statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDB()
		if err != nil {
			return err
		}
		defer d.Close()

		stats, err := d.GetStats()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Sessions:          %d\n", stats.Sessions)
		fmt.Fprintf(w, "Generation calls:  %d (%.1f%% fallback)\n",
			stats.GenerationCalls, stats.FallbackRate*100)
		fmt.Fprintf(w, "Correction runs:   %d (avg %.2f iterations)\n",
			stats.CorrectionRuns, stats.AvgIterations)
		fmt.Fprintf(w, "Issues fixed:      %d\n", stats.IssuesFixed)
		fmt.Fprintf(w, "Issues remaining:  %d\n", stats.IssuesRemaining)

		wallTimes, err := analytics.QueryPhaseWallTimes(d, statsSince)
		if err != nil {
			return err
		}
		if len(wallTimes) > 0 {
			fmt.Fprintln(w, "\nPhase wall time (seconds):")
			fmt.Fprintf(w, "  %-20s %6s %8s %8s %8s\n", "PHASE", "COUNT", "AVG", "P50", "P95")
			for _, pw := range wallTimes {
				fmt.Fprintf(w, "  %-20s %6d %8.1f %8.1f %8.1f\n",
					pw.Phase, pw.Count, pw.Avg, pw.P50, pw.P95)
			}
		}

		failures, err := analytics.QueryCheckFailures(d, statsSince)
		if err != nil {
			return err
		}
		if len(failures) > 0 {
			fmt.Fprintln(w, "\nCheck failures:")
			for _, cf := range failures {
				fmt.Fprintf(w, "  %-12s %4d run(s)  %5.1f%% fail  %5.1f%% auto-fixed",
					cf.Check, cf.Total, cf.FailRate, cf.AutoFixRate)
				if cf.CommonSummaries != "" {
					fmt.Fprintf(w, "  (%s)", cf.CommonSummaries)
				}
				fmt.Fprintln(w)
			}
		}

		iterations, err := analytics.QueryIterationDist(d, statsSince)
		if err != nil {
			return err
		}
		if len(iterations) > 0 {
			fmt.Fprintln(w, "\nCorrection iterations per phase:")
			fmt.Fprintf(w, "  %-20s %6s %6s %6s %6s %6s\n", "PHASE", "RUNS", "0", "1", "2", "3+")
			for _, id := range iterations {
				fmt.Fprintf(w, "  %-20s %6d %5.1f%% %5.1f%% %5.1f%% %5.1f%%\n",
					id.Phase, id.Total, id.Zero, id.One, id.Two, id.ThreePlus)
			}
		}

		throughput, err := analytics.QuerySessionThroughput(d, statsSince)
		if err != nil {
			return err
		}
		if len(throughput) > 0 {
			fmt.Fprintln(w, "\nSessions per day:")
			for _, st := range throughput {
				fmt.Fprintf(w, "  %s  created %d, completed %d, failed %d\n",
					st.Period, st.Created, st.Completed, st.Failed)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsSince, "since", "", "only include events at or after this timestamp (YYYY-MM-DD)")
}
