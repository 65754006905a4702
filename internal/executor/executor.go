// Package executor runs one pipeline phase: prompt rendering, the
// collaborator call with deterministic fallback, fence unwrapping, correction,
// validation checks, and artifact persistence.
package executor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/forgeworks/genforge/internal/checks"
	"github.com/forgeworks/genforge/internal/correct"
	"github.com/forgeworks/genforge/internal/db"
	"github.com/forgeworks/genforge/internal/generate"
	"github.com/forgeworks/genforge/internal/prompt"
	"github.com/forgeworks/genforge/internal/session"
)

// Executor drives the per-phase lifecycle.
type Executor struct {
	client        generate.Client
	fallback      generate.Client
	engine        *correct.Engine
	checker       *checks.Runner
	store         *session.Store
	events        *db.DB // nil = no event log
	maxIterations int
	maxTokens     int
	temperature   float32
	resolveChecks func(names []string) []checks.CheckConfig
	progress      io.Writer // live progress output; nil = silent
}

// Options configures a new Executor.
type Options struct {
	Client        generate.Client
	Engine        *correct.Engine
	Checker       *checks.Runner
	Store         *session.Store
	Events        *db.DB
	MaxIterations int
	MaxTokens     int
	Temperature   float32
	ResolveChecks func(names []string) []checks.CheckConfig
}

// New creates an Executor. A nil Client means every phase uses the
// deterministic fallback generator.
func New(opts Options) *Executor {
	client := opts.Client
	if client == nil {
		client = generate.NewFallbackClient()
	}
	engine := opts.Engine
	if engine == nil {
		engine = correct.NewEngine()
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = 3
	}
	return &Executor{
		client:        client,
		fallback:      generate.NewFallbackClient(),
		engine:        engine,
		checker:       opts.Checker,
		store:         opts.Store,
		events:        opts.Events,
		maxIterations: maxIter,
		maxTokens:     opts.MaxTokens,
		temperature:   opts.Temperature,
		resolveChecks: opts.ResolveChecks,
	}
}

// SetProgress sets a writer for live progress output (e.g. os.Stderr).
func (e *Executor) SetProgress(w io.Writer) {
	e.progress = w
}

// logf prints a progress line if a progress writer is configured.
func (e *Executor) logf(format string, args ...interface{}) {
	if e.progress != nil {
		fmt.Fprintf(e.progress, "  → "+format+"\n", args...)
	}
}

// Execute runs the full lifecycle for one phase attempt and returns its
// result. Collaborator failures are recovered locally via the fallback
// generator; only infrastructure failures (template, store) are returned as
// errors, which the orchestrator treats as a failed phase attempt.
func (e *Executor) Execute(ctx context.Context, sess *session.Session, def *session.PhaseDefinition, attempt int, prevErr string) (*session.PhaseResult, error) {
	start := time.Now().UTC()
	e.logf("session %s: running phase %q (attempt %d)", sess.ID, def.Name, attempt)

	result := &session.PhaseResult{
		Phase:     def.Name,
		Index:     def.Index,
		Status:    session.PhaseRunning,
		StartedAt: start,
	}

	outputs := def.Outputs
	if len(outputs) == 0 {
		outputs = []string{def.Name + ".ts"}
	}

	rendered, err := e.renderPrompt(sess, def, attempt, prevErr, outputs)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	if e.store != nil {
		if err := e.store.SavePrompt(sess.ID, def.Name, attempt, rendered); err != nil {
			return nil, fmt.Errorf("save prompt: %w", err)
		}
	}

	for _, target := range outputs {
		req := generate.Request{
			Prompt:      rendered,
			MaxTokens:   e.maxTokens,
			Temperature: e.temperature,
			TargetName:  target,
			Phase:       def.Name,
		}

		resp := e.generateWithFallback(ctx, sess.ID, attempt, req, result)
		if e.store != nil {
			if err := e.store.SaveRaw(sess.ID, def.Name, attempt, resp.Text); err != nil {
				return nil, fmt.Errorf("save raw output: %w", err)
			}
		}

		text := generate.UnwrapFence(resp.Text)
		corr := e.engine.Correct(text, e.maxIterations)
		e.recordCorrection(sess.ID, def.Name, attempt, corr, result)

		path, err := e.persistArtifact(sess.ID, def.Name, attempt, target, corr)
		if err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, path)
		result.Metrics.Files++
		result.Metrics.Lines += countLines(corr.Text)
		result.Metrics.GeneratedTests += countTests(target, corr.Text)
	}

	if err := e.runChecks(ctx, sess, def, attempt, result); err != nil {
		return nil, err
	}

	result.Status = session.PhaseCompleted
	result.EndedAt = time.Now().UTC()
	result.Metrics.DurationMs = result.EndedAt.Sub(start).Milliseconds()
	e.logf("phase %q completed (%d artifacts, %d warnings)", def.Name, len(result.Artifacts), len(result.Warnings))
	return result, nil
}

// generateWithFallback calls the collaborator and switches to the
// deterministic fallback on error or empty output. Fallback use is a warning
// on the phase result, never a failure.
func (e *Executor) generateWithFallback(ctx context.Context, sessionID string, attempt int, req generate.Request, result *session.PhaseResult) *generate.Response {
	callStart := time.Now()
	resp, err := e.client.Generate(ctx, req)
	if err != nil || resp == nil || strings.TrimSpace(resp.Text) == "" {
		reason := "empty output"
		if err != nil {
			reason = err.Error()
		}
		e.logf("collaborator unavailable (%s), using fallback generator", reason)
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("generation fallback for %s: %s", req.TargetName, reason))
		resp, _ = e.fallback.Generate(ctx, req)
	}
	if e.events != nil {
		_ = e.events.LogGenerationCall(sessionID, req.Phase, attempt, resp.Model, resp.Fallback,
			int(time.Since(callStart).Milliseconds()), len(req.Prompt), len(resp.Text))
	}
	return resp
}

// recordCorrection folds correction diagnostics into warnings and the event log.
func (e *Executor) recordCorrection(sessionID, phase string, attempt int, corr *correct.Result, result *session.PhaseResult) {
	for _, fix := range corr.AppliedFixes {
		result.Warnings = append(result.Warnings, "corrected: "+fix)
	}
	for _, issue := range corr.RemainingIssues {
		result.Warnings = append(result.Warnings, "unresolved: "+issue)
	}
	if e.events != nil {
		_ = e.events.LogCorrectionRun(sessionID, phase, attempt, corr.Iterations,
			len(corr.OriginalIssues), len(corr.FixedIssues), len(corr.RemainingIssues), corr.Success)
	}
}

func (e *Executor) persistArtifact(sessionID, phase string, attempt int, target string, corr *correct.Result) (string, error) {
	if e.store == nil {
		return target, nil
	}
	if err := e.store.SaveCorrection(sessionID, phase, attempt, corr); err != nil {
		return "", fmt.Errorf("save correction diagnostics: %w", err)
	}
	path, err := e.store.SaveArtifact(sessionID, phase, attempt, target, corr.Text)
	if err != nil {
		return "", fmt.Errorf("save artifact %s: %w", target, err)
	}
	return path, nil
}

// runChecks executes the phase's validation checks against the artifact
// directory and feeds failures back through the correction engine. Remaining
// issues stay warnings; checks never fail a phase by themselves.
func (e *Executor) runChecks(ctx context.Context, sess *session.Session, def *session.PhaseDefinition, attempt int, result *session.PhaseResult) error {
	if e.checker == nil || e.resolveChecks == nil || len(def.Checks) == 0 || e.store == nil {
		return nil
	}

	cfgs := e.resolveChecks(def.Checks)
	if len(cfgs) == 0 {
		return nil
	}

	dir := e.store.ArtifactDir(sess.ID, def.Name, attempt)
	e.logf("running checks: %v", def.Checks)
	validation, err := e.checker.RunAll(ctx, dir, cfgs)
	if err != nil {
		return fmt.Errorf("run checks: %w", err)
	}
	for _, c := range validation.Checks {
		if e.events != nil {
			_ = e.events.LogCheckRun(sess.ID, def.Name, attempt, c.CheckName,
				c.Passed, c.AutoFixed, c.ExitCode, c.DurationMs, c.Summary, c.Findings)
		}
	}
	if validation.Passed {
		return nil
	}

	// Feed tool findings back through the same correction contract.
	for i, target := range outputNames(def) {
		if i >= len(result.Artifacts) {
			break
		}
		text, err := e.store.GetArtifact(sess.ID, def.Name, attempt, target)
		if err != nil {
			continue
		}
		corr := e.engine.CorrectWith(text, validation.Issues, e.maxIterations)
		if len(corr.AppliedFixes) > 0 {
			if _, err := e.store.SaveArtifact(sess.ID, def.Name, attempt, target, corr.Text); err != nil {
				return fmt.Errorf("rewrite artifact %s: %w", target, err)
			}
		}
		e.recordCorrection(sess.ID, def.Name, attempt, corr, result)
	}
	return nil
}

func outputNames(def *session.PhaseDefinition) []string {
	if len(def.Outputs) == 0 {
		return []string{def.Name + ".ts"}
	}
	return def.Outputs
}

// renderPrompt builds the phase prompt from the template, prior phase
// outputs, and the session context.
func (e *Executor) renderPrompt(sess *session.Session, def *session.PhaseDefinition, attempt int, prevErr string, outputs []string) (string, error) {
	template := def.Template
	if template == "" {
		template = "generate.md"
	}
	if prevErr != "" {
		template = "retry.md"
	}

	var prior strings.Builder
	for _, r := range sess.Results {
		if r.Status != session.PhaseCompleted {
			continue
		}
		for _, a := range r.Artifacts {
			fmt.Fprintf(&prior, "- %s (%s)\n", a, r.Phase)
		}
	}

	var contextLines strings.Builder
	for k, v := range sess.Context {
		fmt.Fprintf(&contextLines, "- %s: %s\n", k, v)
	}

	vars := prompt.Vars{
		"phase_id":          def.Name,
		"phase_description": def.Description,
		"pipeline_name":     sess.Pipeline,
		"session_id":        sess.ID,
		"target_name":       strings.Join(outputs, ", "),
		"prior_outputs":     prior.String(),
		"context":           contextLines.String(),
		"previous_error":    prevErr,
	}

	tmplContent, err := prompt.LoadTemplate(template, "")
	if err != nil {
		return "", fmt.Errorf("load template %q: %w", template, err)
	}
	return prompt.Render(tmplContent, vars)
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	// A trailing newline terminates the last line, it does not open a new one.
	return strings.Count(strings.TrimSuffix(text, "\n"), "\n") + 1
}

// countTests counts test cases in generated test artifacts. Non-test targets
// contribute nothing.
func countTests(target, text string) int {
	if !strings.Contains(target, ".test.") && !strings.Contains(target, ".spec.") {
		return 0
	}
	return strings.Count(text, "it(") + strings.Count(text, "test(")
}
