package checks

import (
	"context"
	"fmt"
)

// ValidationResult aggregates a full validation run over one artifact set.
type ValidationResult struct {
	Passed bool      `json:"passed"`
	Checks []*Result `json:"checks"`
	Issues []string  `json:"issues,omitempty"`
}

// RunAll executes every configured check in order and folds the parsed
// findings into one issue list. All checks run even when earlier ones fail,
// so the correction engine sees the complete picture.
func (r *Runner) RunAll(ctx context.Context, dir string, cfgs []CheckConfig) (*ValidationResult, error) {
	out := &ValidationResult{Passed: true}

	for _, cfg := range cfgs {
		result, err := r.Run(ctx, dir, cfg)
		if err != nil {
			return out, fmt.Errorf("run check %q: %w", cfg.Name, err)
		}
		out.Checks = append(out.Checks, result)
		if !result.Passed {
			out.Passed = false
			out.Issues = append(out.Issues, result.Issues...)
		}
	}
	return out, nil
}
