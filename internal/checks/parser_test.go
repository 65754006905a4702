package checks

import (
	"strings"
	"testing"
)

const eslintFailJSON = `[
  {
    "filePath": "src/App.tsx",
    "messages": [
      {"ruleId": "jsx-a11y/alt-text", "severity": 2, "message": "img elements must have an alt prop", "line": 10, "column": 5},
      {"ruleId": "no-console", "severity": 1, "message": "Unexpected console statement", "line": 12, "column": 3}
    ]
  }
]`

func TestESLintParserFailures(t *testing.T) {
	p := &ESLintParser{}
	result := p.Parse(eslintFailJSON, "", 1)

	if result.Passed {
		t.Error("expected failure with one error-severity message")
	}
	if result.Summary != "1 errors, 1 warnings" {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.Issues) != 2 {
		t.Fatalf("issues = %v, want 2", result.Issues)
	}
	if result.Issues[0] != "accessibility: img elements must have an alt prop (jsx-a11y/alt-text)" {
		t.Errorf("issues[0] = %q", result.Issues[0])
	}
	if result.Issues[1] != "style: Unexpected console statement (no-console)" {
		t.Errorf("issues[1] = %q", result.Issues[1])
	}
}

func TestESLintParserWarningsOnlyPass(t *testing.T) {
	p := &ESLintParser{}
	clean := `[{"filePath": "src/App.tsx", "messages": [{"ruleId": "no-console", "severity": 1, "message": "Unexpected console statement", "line": 1, "column": 1}]}]`

	result := p.Parse(clean, "", 0)

	if !result.Passed {
		t.Error("warnings alone should not fail the check")
	}
	if result.Summary != "0 errors, 1 warnings" {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestESLintParserBadJSON(t *testing.T) {
	p := &ESLintParser{}
	result := p.Parse("not json", "", 2)

	if result.Passed {
		t.Error("non-zero exit with unparseable output should fail")
	}
	if !strings.Contains(result.Summary, "could not parse") {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestRuleCategory(t *testing.T) {
	cases := []struct {
		rule string
		want string
	}{
		{"jsx-a11y/alt-text", "accessibility"},
		{"react/jsx-key", "framework-convention"},
		{"react-hooks/rules-of-hooks", "framework-convention"},
		{"import/no-duplicates", "import"},
		{"@typescript-eslint/no-explicit-any", "type-checking"},
		{"no-console", "style"},
	}
	for _, tc := range cases {
		if got := ruleCategory(tc.rule); got != tc.want {
			t.Errorf("ruleCategory(%q) = %q, want %q", tc.rule, got, tc.want)
		}
	}
}

func TestTypeScriptParser(t *testing.T) {
	p := &TypeScriptParser{}
	stdout := strings.Join([]string{
		"src/auth.ts(42,5): error TS2345: Argument of type 'string' is not assignable.",
		"",
		"src/store.ts(7,1): error TS2304: Cannot find name 'useStore'.",
		"Found 2 errors.",
	}, "\n")

	result := p.Parse(stdout, "", 2)

	if result.Passed {
		t.Error("expected failure")
	}
	if result.Summary != "2 type errors" {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.Issues) != 2 {
		t.Fatalf("issues = %v", result.Issues)
	}
	want := "type-checking: TS2345 Argument of type 'string' is not assignable. (src/auth.ts:42)"
	if result.Issues[0] != want {
		t.Errorf("issues[0] = %q, want %q", result.Issues[0], want)
	}
}

func TestTypeScriptParserClean(t *testing.T) {
	p := &TypeScriptParser{}
	result := p.Parse("", "", 0)

	if !result.Passed {
		t.Error("expected pass")
	}
	if result.Summary != "no type errors" {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.Issues) != 0 {
		t.Errorf("issues = %v", result.Issues)
	}
}

func TestPrettierParser(t *testing.T) {
	p := &PrettierParser{}
	stdout := strings.Join([]string{
		"Checking formatting...",
		"[warn] src/auth.ts",
		"[warn] src/App.tsx",
		"[warn] Code style issues found in the above file(s). Forgot to run Prettier?",
	}, "\n")

	result := p.Parse(stdout, "", 1)

	if result.Passed {
		t.Error("expected failure")
	}
	if result.Summary != "2 files need formatting" {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.Issues) != 2 {
		t.Fatalf("issues = %v", result.Issues)
	}
	if result.Issues[0] != "style: file needs formatting (src/auth.ts)" {
		t.Errorf("issues[0] = %q", result.Issues[0])
	}
}

func TestPrettierParserClean(t *testing.T) {
	p := &PrettierParser{}
	result := p.Parse("Checking formatting...\nAll matched files use Prettier code style!", "", 0)

	if !result.Passed || result.Summary != "all files formatted" {
		t.Errorf("result = %+v", result)
	}
}

const vitestFailJSON = `{
  "numTotalTests": 3,
  "numPassedTests": 2,
  "numFailedTests": 1,
  "numPendingTests": 0,
  "testResults": [
    {
      "name": "src/App.test.tsx",
      "status": "failed",
      "assertionResults": [
        {"fullName": "App renders", "status": "passed", "failureMessages": []},
        {"fullName": "App increments", "status": "failed", "failureMessages": ["expected 2 to be 1"]}
      ]
    }
  ]
}`

func TestVitestParserFailures(t *testing.T) {
	p := &VitestParser{}
	result := p.Parse(vitestFailJSON, "", 1)

	if result.Passed {
		t.Error("expected failure")
	}
	if result.Summary != "2 passed, 1 failed, 0 skipped out of 3" {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("issues = %v", result.Issues)
	}
	if result.Issues[0] != "test: App increments failed in src/App.test.tsx" {
		t.Errorf("issues[0] = %q", result.Issues[0])
	}
}

func TestVitestParserAllPassing(t *testing.T) {
	p := &VitestParser{}
	clean := `{"numTotalTests": 2, "numPassedTests": 2, "numFailedTests": 0, "numPendingTests": 0, "testResults": []}`

	result := p.Parse(clean, "", 0)

	if !result.Passed {
		t.Error("expected pass")
	}
	if result.Summary != "2 passed, 0 failed, 0 skipped out of 2" {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestVitestParserBadJSON(t *testing.T) {
	p := &VitestParser{}
	result := p.Parse("segfault", "", 1)

	if result.Passed {
		t.Error("expected failure")
	}
	if !strings.Contains(result.Summary, "could not parse test JSON") {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestGenericParser(t *testing.T) {
	p := &GenericParser{}

	pass := p.Parse("ok\n", "", 0)
	if !pass.Passed || pass.Summary != "passed (exit code 0)" {
		t.Errorf("pass = %+v", pass)
	}
	if len(pass.Issues) != 0 {
		t.Errorf("issues = %v", pass.Issues)
	}

	fail := p.Parse("building...\n", "fatal: missing module\n", 2)
	if fail.Passed {
		t.Error("expected failure")
	}
	if len(fail.Issues) != 1 || fail.Issues[0] != "syntax: command failed with exit code 2" {
		t.Errorf("issues = %v", fail.Issues)
	}
	findings, ok := fail.Findings.(string)
	if !ok || !strings.Contains(findings, "fatal: missing module") {
		t.Errorf("findings = %v", fail.Findings)
	}
}

func TestGenericParserTruncatesLongOutput(t *testing.T) {
	p := &GenericParser{}
	long := strings.Repeat("x", maxOutputLen+500) + "TAIL"

	result := p.Parse(long, "", 1)

	findings := result.Findings.(string)
	if !strings.Contains(findings, "truncated") {
		t.Error("expected truncation marker")
	}
	if !strings.HasSuffix(findings, "TAIL") {
		t.Error("tail of output was dropped")
	}
	if len(findings) > maxOutputLen+100 {
		t.Errorf("findings length = %d", len(findings))
	}
}
