package checks

import (
	"fmt"
	"strings"
)

// PrettierParser parses prettier --check output.
type PrettierParser struct{}

func (p *PrettierParser) Parse(stdout string, stderr string, exitCode int) ParseResult {
	// prettier --check output:
	// Checking formatting...
	// [warn] src/auth.ts
	// [warn] Code style issues found in the above file(s). Forgot to run Prettier?

	var files []string
	var issues []string
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[warn] ") {
			continue
		}
		file := strings.TrimPrefix(line, "[warn] ")
		// Skip summary lines
		if strings.Contains(file, "Code style issues") || strings.Contains(file, "Forgot to run") {
			continue
		}
		files = append(files, file)
		issues = append(issues, fmt.Sprintf("style: file needs formatting (%s)", file))
	}

	passed := exitCode == 0
	summary := fmt.Sprintf("%d files need formatting", len(files))
	if passed {
		summary = "all files formatted"
	}

	return ParseResult{
		Passed:   passed,
		Summary:  summary,
		Findings: files,
		Issues:   issues,
	}
}
