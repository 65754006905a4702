package checks

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TypeScriptParser parses tsc --noEmit output into type-checking issues.
type TypeScriptParser struct{}

type tsFinding struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// tsc output format: src/auth.ts(42,5): error TS2345: Argument of type...
var tscLineRe = regexp.MustCompile(`^(.+)\((\d+),(\d+)\):\s+error\s+(TS\d+):\s+(.+)$`)

func (p *TypeScriptParser) Parse(stdout string, stderr string, exitCode int) ParseResult {
	var findings []tsFinding
	var issues []string

	// tsc writes diagnostics to stdout
	for _, line := range strings.Split(stdout, "\n") {
		m := tscLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		lineNum, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		findings = append(findings, tsFinding{
			File:    m[1],
			Line:    lineNum,
			Column:  col,
			Code:    m[4],
			Message: m[5],
		})
		issues = append(issues, fmt.Sprintf("type-checking: %s %s (%s:%d)", m[4], m[5], m[1], lineNum))
	}

	passed := exitCode == 0
	summary := fmt.Sprintf("%d type errors", len(findings))
	if passed {
		summary = "no type errors"
	}

	return ParseResult{
		Passed:   passed,
		Summary:  summary,
		Findings: findings,
		Issues:   issues,
	}
}
