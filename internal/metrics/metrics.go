// Package metrics folds per-phase results into a session summary.
package metrics

import "github.com/forgeworks/genforge/internal/session"

// Summarize is a pure function over finalized phase results: it sums
// durations, artifact and line counts, and generated tests, and estimates
// coverage as the share of generated files that have at least one generated
// test, clamped to [0, 100].
func Summarize(results []session.PhaseResult) session.Metrics {
	var m session.Metrics
	filesWithTests := 0
	for _, r := range results {
		m.TotalDurationMs += r.Metrics.DurationMs
		m.TotalFiles += r.Metrics.Files
		m.TotalLines += r.Metrics.Lines
		m.GeneratedTests += r.Metrics.GeneratedTests
		if r.Metrics.GeneratedTests > 0 {
			filesWithTests += r.Metrics.Files
		}
	}
	if m.TotalFiles > 0 {
		m.EstimatedCoverage = clamp(float64(filesWithTests)/float64(m.TotalFiles)*100, 0, 100)
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
