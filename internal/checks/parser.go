package checks

// ParseResult holds the normalized output from a parser. Issues are
// "category: description" strings in the form the correction engine consumes,
// so external tool findings and pattern-detected defects share one contract.
type ParseResult struct {
	Passed   bool        `json:"passed"`
	Summary  string      `json:"summary"`
	Findings interface{} `json:"findings"`
	Issues   []string    `json:"issues,omitempty"`
}

// Parser converts raw command output into a structured ParseResult.
type Parser interface {
	Parse(stdout string, stderr string, exitCode int) ParseResult
}
