package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgeworks/genforge/internal/correct"
)

var (
	correctMaxIterations int
	correctWrite         bool
)

var correctCmd = &cobra.Command{
	Use:   "correct <file>",
	Short: "Run the correction engine against a file",
	Long: `Detects known defect patterns in the file (loose equality, var
declarations, debug statements, missing list keys, and so on), applies the
registered fixers up to the iteration bound, and reports what changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}

		engine := correct.NewEngine()
		result := engine.Correct(string(data), correctMaxIterations)

		w := cmd.OutOrStdout()
		if len(result.OriginalIssues) == 0 {
			fmt.Fprintln(w, "No issues detected.")
			return nil
		}

		fmt.Fprintf(w, "Detected %d issue(s), %d iteration(s) used:\n",
			len(result.OriginalIssues), result.Iterations)
		for _, fix := range result.AppliedFixes {
			fmt.Fprintf(w, "  fixed:     %s\n", fix)
		}
		for _, issue := range result.RemainingIssues {
			fmt.Fprintf(w, "  remaining: %s\n", issue)
		}

		if correctWrite && len(result.AppliedFixes) > 0 {
			if err := os.WriteFile(args[0], []byte(result.Text), 0644); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
			fmt.Fprintf(w, "Wrote corrected output to %s\n", args[0])
		}

		if !result.Success {
			return fmt.Errorf("%d issue(s) could not be corrected", len(result.RemainingIssues))
		}
		return nil
	},
}

func init() {
	correctCmd.Flags().IntVar(&correctMaxIterations, "max-iterations", 3, "maximum correction passes")
	correctCmd.Flags().BoolVarP(&correctWrite, "write", "w", false, "rewrite the file in place")
}
