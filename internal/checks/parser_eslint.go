package checks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ESLintParser parses ESLint JSON output. Rule ids are mapped onto the
// correction engine's categories so lint findings route to the right fixers.
type ESLintParser struct{}

type eslintFile struct {
	FilePath string          `json:"filePath"`
	Messages []eslintMessage `json:"messages"`
}

type eslintMessage struct {
	RuleID   string `json:"ruleId"`
	Severity int    `json:"severity"` // 1=warning, 2=error
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

type eslintFinding struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
}

func (p *ESLintParser) Parse(stdout string, stderr string, exitCode int) ParseResult {
	var files []eslintFile
	if err := json.Unmarshal([]byte(stdout), &files); err != nil {
		return ParseResult{
			Passed:  exitCode == 0,
			Summary: fmt.Sprintf("exit code %d (could not parse ESLint JSON)", exitCode),
		}
	}

	var findings []eslintFinding
	var issues []string
	errors, warnings := 0, 0
	for _, f := range files {
		for _, m := range f.Messages {
			sev := "warning"
			if m.Severity == 2 {
				sev = "error"
				errors++
			} else {
				warnings++
			}
			findings = append(findings, eslintFinding{
				File:     f.FilePath,
				Line:     m.Line,
				Column:   m.Column,
				Severity: sev,
				Rule:     m.RuleID,
				Message:  m.Message,
			})
			issues = append(issues, fmt.Sprintf("%s: %s (%s)", ruleCategory(m.RuleID), m.Message, m.RuleID))
		}
	}

	passed := errors == 0
	summary := fmt.Sprintf("%d errors, %d warnings", errors, warnings)

	return ParseResult{
		Passed:   passed,
		Summary:  summary,
		Findings: findings,
		Issues:   issues,
	}
}

// ruleCategory maps an ESLint rule id to a correction category.
func ruleCategory(rule string) string {
	switch {
	case strings.HasPrefix(rule, "jsx-a11y/"):
		return "accessibility"
	case strings.HasPrefix(rule, "react/"), strings.HasPrefix(rule, "react-hooks/"):
		return "framework-convention"
	case strings.HasPrefix(rule, "import/"):
		return "import"
	case strings.HasPrefix(rule, "@typescript-eslint/"):
		return "type-checking"
	default:
		return "style"
	}
}
