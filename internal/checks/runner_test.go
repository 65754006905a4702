package checks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type cmdResponse struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

// mockRunner replays queued responses per command, in call order.
type mockRunner struct {
	responses map[string][]cmdResponse
	calls     []string
}

func newMockRunner() *mockRunner {
	return &mockRunner{responses: make(map[string][]cmdResponse)}
}

func (m *mockRunner) queue(command string, resp cmdResponse) {
	m.responses[command] = append(m.responses[command], resp)
}

func (m *mockRunner) Run(_ context.Context, _ string, command string) (string, string, int, error) {
	m.calls = append(m.calls, command)
	pending := m.responses[command]
	if len(pending) == 0 {
		return "", "", 0, nil
	}
	resp := pending[0]
	m.responses[command] = pending[1:]
	return resp.stdout, resp.stderr, resp.exitCode, resp.err
}

func TestRunParsesConfiguredParser(t *testing.T) {
	mock := newMockRunner()
	mock.queue("eslint --format json .", cmdResponse{stdout: eslintFailJSON, exitCode: 1})
	r := NewRunner(mock)

	result, err := r.Run(context.Background(), "/tmp/artifacts", CheckConfig{
		Name:    "lint",
		Command: "eslint --format json .",
		Parser:  "eslint",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Passed {
		t.Error("expected failure")
	}
	if result.CheckName != "lint" || result.ExitCode != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.Summary != "1 errors, 1 warnings" {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.Issues) != 2 {
		t.Errorf("issues = %v", result.Issues)
	}
	if !strings.Contains(result.Findings, "jsx-a11y/alt-text") {
		t.Errorf("findings = %s", result.Findings)
	}
}

func TestRunAutoFixThenRecheck(t *testing.T) {
	mock := newMockRunner()
	mock.queue("prettier --check .", cmdResponse{stdout: "[warn] src/auth.ts\n", exitCode: 1})
	mock.queue("prettier --check .", cmdResponse{stdout: "All matched files use Prettier code style!\n", exitCode: 0})
	r := NewRunner(mock)

	result, err := r.Run(context.Background(), "/tmp/artifacts", CheckConfig{
		Name:       "format",
		Command:    "prettier --check .",
		Parser:     "prettier",
		AutoFix:    true,
		FixCommand: "prettier --write .",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Passed {
		t.Errorf("result = %+v, want pass after auto-fix", result)
	}
	if !result.AutoFixed {
		t.Error("AutoFixed not set")
	}
	want := []string{"prettier --check .", "prettier --write .", "prettier --check ."}
	if len(mock.calls) != len(want) {
		t.Fatalf("calls = %v", mock.calls)
	}
	for i, cmd := range want {
		if mock.calls[i] != cmd {
			t.Errorf("calls[%d] = %q, want %q", i, mock.calls[i], cmd)
		}
	}
}

func TestRunSkipsFixWhenPassing(t *testing.T) {
	mock := newMockRunner()
	mock.queue("prettier --check .", cmdResponse{exitCode: 0})
	r := NewRunner(mock)

	result, err := r.Run(context.Background(), "/tmp/artifacts", CheckConfig{
		Name:       "format",
		Command:    "prettier --check .",
		Parser:     "prettier",
		AutoFix:    true,
		FixCommand: "prettier --write .",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Passed || result.AutoFixed {
		t.Errorf("result = %+v", result)
	}
	if len(mock.calls) != 1 {
		t.Errorf("calls = %v, want a single check run", mock.calls)
	}
}

func TestRunNoFixWhenAutoFixDisabled(t *testing.T) {
	mock := newMockRunner()
	mock.queue("prettier --check .", cmdResponse{stdout: "[warn] src/auth.ts\n", exitCode: 1})
	r := NewRunner(mock)

	result, err := r.Run(context.Background(), "/tmp/artifacts", CheckConfig{
		Name:       "format",
		Command:    "prettier --check .",
		Parser:     "prettier",
		FixCommand: "prettier --write .",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Passed || result.AutoFixed {
		t.Errorf("result = %+v", result)
	}
	if len(mock.calls) != 1 {
		t.Errorf("calls = %v", mock.calls)
	}
}

func TestRunFallsBackToGenericParser(t *testing.T) {
	mock := newMockRunner()
	mock.queue("make verify", cmdResponse{stderr: "boom\n", exitCode: 3})
	r := NewRunner(mock)

	result, err := r.Run(context.Background(), "/tmp/artifacts", CheckConfig{
		Name:    "verify",
		Command: "make verify",
		Parser:  "something-unknown",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Passed {
		t.Error("expected failure")
	}
	if len(result.Issues) != 1 || result.Issues[0] != "syntax: command failed with exit code 3" {
		t.Errorf("issues = %v", result.Issues)
	}
}

// blockingRunner waits out the context, simulating a hung check command.
type blockingRunner struct{}

func (b *blockingRunner) Run(ctx context.Context, _ string, _ string) (string, string, int, error) {
	<-ctx.Done()
	return "", "", -1, ctx.Err()
}

func TestRunTimeout(t *testing.T) {
	r := NewRunner(&blockingRunner{})

	result, err := r.Run(context.Background(), "/tmp/artifacts", CheckConfig{
		Name:    "lint",
		Command: "eslint .",
		Parser:  "eslint",
		Timeout: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Passed {
		t.Error("expected failure")
	}
	if result.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", result.ExitCode)
	}
	if !strings.Contains(result.Summary, "timeout after") {
		t.Errorf("summary = %q", result.Summary)
	}
	if len(result.Issues) != 1 || !strings.Contains(result.Issues[0], "timed out") {
		t.Errorf("issues = %v", result.Issues)
	}
}

func TestRunPropagatesInfrastructureErrors(t *testing.T) {
	mock := newMockRunner()
	mock.queue("eslint .", cmdResponse{err: errors.New("sh not found")})
	r := NewRunner(mock)

	_, err := r.Run(context.Background(), "/tmp/artifacts", CheckConfig{
		Name:    "lint",
		Command: "eslint .",
		Parser:  "eslint",
	})
	if err == nil || !strings.Contains(err.Error(), "sh not found") {
		t.Fatalf("err = %v, want exec failure", err)
	}
}

func TestRunAllAggregatesIssuesFromFailures(t *testing.T) {
	mock := newMockRunner()
	mock.queue("eslint --format json .", cmdResponse{stdout: eslintFailJSON, exitCode: 1})
	mock.queue("tsc --noEmit", cmdResponse{exitCode: 0})
	r := NewRunner(mock)

	result, err := r.RunAll(context.Background(), "/tmp/artifacts", []CheckConfig{
		{Name: "lint", Command: "eslint --format json .", Parser: "eslint"},
		{Name: "types", Command: "tsc --noEmit", Parser: "typescript"},
	})
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	if result.Passed {
		t.Error("expected aggregate failure")
	}
	if len(result.Checks) != 2 {
		t.Fatalf("checks = %d, want both to run", len(result.Checks))
	}
	if !result.Checks[1].Passed {
		t.Error("passing check marked failed")
	}
	if len(result.Issues) != 2 {
		t.Errorf("issues = %v, want only the lint findings", result.Issues)
	}
}

func TestRunAllEmptyConfig(t *testing.T) {
	r := NewRunner(newMockRunner())
	result, err := r.RunAll(context.Background(), "/tmp/artifacts", nil)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if !result.Passed || len(result.Checks) != 0 {
		t.Errorf("result = %+v", result)
	}
}
