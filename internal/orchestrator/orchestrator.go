// Package orchestrator advances a pipeline session through its ordered
// phases: dependency assertion, one automatic retry per phase, fatal halt
// semantics, and the final metrics summary.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/forgeworks/genforge/internal/db"
	"github.com/forgeworks/genforge/internal/metrics"
	"github.com/forgeworks/genforge/internal/session"
)

// PhaseExecutor runs a single phase attempt. prevErr carries the failure text
// of the previous attempt so the retry prompt can include it.
type PhaseExecutor interface {
	Execute(ctx context.Context, sess *session.Session, def *session.PhaseDefinition, attempt int, prevErr string) (*session.PhaseResult, error)
}

// Orchestrator owns a session for the duration of a run. Phases execute
// strictly in definition order; phase i+1 never starts before phase i has a
// finalized result.
type Orchestrator struct {
	exec     PhaseExecutor
	store    *session.Store
	events   *db.DB // nil = no event log
	progress io.Writer
}

// Options configures a new Orchestrator. Exec is required; Store and Events
// are optional.
type Options struct {
	Exec   PhaseExecutor
	Store  *session.Store
	Events *db.DB
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		exec:   opts.Exec,
		store:  opts.Store,
		events: opts.Events,
	}
}

// SetProgress sets a writer for live progress output (e.g. os.Stderr).
func (o *Orchestrator) SetProgress(w io.Writer) {
	o.progress = w
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.progress != nil {
		fmt.Fprintf(o.progress, format+"\n", args...)
	}
}

// Outcome is the structured result of a pipeline run. It is returned for
// completed and failed runs alike.
type Outcome struct {
	SessionID string                `json:"session_id"`
	Status    string                `json:"status"`
	Results   []session.PhaseResult `json:"results"`
	Metrics   session.Metrics       `json:"metrics"`
}

// Start creates and persists a fresh session for the named pipeline.
func (o *Orchestrator) Start(pipeline string, phases []session.PhaseDefinition, initialContext map[string]string) (*session.Session, error) {
	sess := session.New(uuid.NewString(), pipeline, phases, initialContext)
	if o.store != nil {
		if err := o.store.Create(sess); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
	}
	o.logEvent(sess.ID, "created", "", 0, fmt.Sprintf("pipeline=%s phases=%d", pipeline, len(phases)))
	return sess, nil
}

// Run drives the session from its current index through the final phase.
// A failed phase is retried exactly once with the captured error folded into
// the retry prompt; a second failure halts the pipeline with a
// FatalPipelineError. The returned Outcome is populated in every case,
// including failure.
func (o *Orchestrator) Run(ctx context.Context, sess *session.Session) (*Outcome, error) {
	sess.Status = session.StatusRunning
	o.save(sess)
	o.logEvent(sess.ID, "started", "", 0, "")

	for i := sess.CurrentIndex; i < len(sess.Phases); i++ {
		def := sess.Definition(i)

		if dep := o.unmetDependency(sess, def); dep != "" {
			err := &DependencyViolationError{Phase: def.Name, Dependency: dep}
			o.fail(sess, def.Name, 0, err.Error())
			return o.outcome(sess), err
		}

		result, err := o.runPhase(ctx, sess, def)
		if err != nil {
			failed := failedResult(def, err)
			sess.Append(failed)
			o.fail(sess, def.Name, 2, err.Error())
			return o.outcome(sess), &FatalPipelineError{
				Phase:   def.Name,
				Index:   def.Index + 1,
				Results: append([]session.PhaseResult(nil), sess.Results...),
				Err:     err,
			}
		}

		sess.Append(*result)
		o.save(sess)
		o.logEvent(sess.ID, "phase_completed", def.Name, 0, "")
		o.logf("phase %q completed (%d/%d)", def.Name, i+1, len(sess.Phases))
	}

	summary := metrics.Summarize(sess.Results)
	sess.Summary = &summary
	sess.Status = session.StatusCompleted
	o.save(sess)
	o.logEvent(sess.ID, "completed", "", 0,
		fmt.Sprintf("files=%d lines=%d", summary.TotalFiles, summary.TotalLines))

	return o.outcome(sess), nil
}

// runPhase executes one phase with a single automatic retry. The error from
// the first attempt is passed to the second so the retry prompt can name it.
func (o *Orchestrator) runPhase(ctx context.Context, sess *session.Session, def *session.PhaseDefinition) (*session.PhaseResult, error) {
	result, err := o.exec.Execute(ctx, sess, def, 1, "")
	if err == nil {
		return result, nil
	}

	o.logEvent(sess.ID, "phase_retry", def.Name, 2, err.Error())
	o.logf("phase %q failed, retrying: %v", def.Name, err)

	result, retryErr := o.exec.Execute(ctx, sess, def, 2, err.Error())
	if retryErr != nil {
		return nil, fmt.Errorf("attempt 1: %v; attempt 2: %w", err, retryErr)
	}
	return result, nil
}

// unmetDependency returns the first declared dependency of def without a
// completed result, or "".
func (o *Orchestrator) unmetDependency(sess *session.Session, def *session.PhaseDefinition) string {
	for _, dep := range def.DependsOn {
		r := sess.ResultFor(dep)
		if r == nil || r.Status != session.PhaseCompleted {
			return dep
		}
	}
	return ""
}

func (o *Orchestrator) fail(sess *session.Session, phase string, attempt int, detail string) {
	sess.Status = session.StatusFailed
	summary := metrics.Summarize(sess.Results)
	sess.Summary = &summary
	o.save(sess)
	o.logEvent(sess.ID, "failed", phase, attempt, detail)
}

func (o *Orchestrator) outcome(sess *session.Session) *Outcome {
	out := &Outcome{
		SessionID: sess.ID,
		Status:    sess.Status,
		Results:   append([]session.PhaseResult(nil), sess.Results...),
	}
	if sess.Summary != nil {
		out.Metrics = *sess.Summary
	}
	return out
}

func (o *Orchestrator) save(sess *session.Session) {
	if o.store != nil {
		_ = o.store.Save(sess)
	}
}

func (o *Orchestrator) logEvent(sessionID, event, phase string, attempt int, detail string) {
	if o.events != nil {
		_ = o.events.LogPipelineEvent(sessionID, event, phase, attempt, detail)
	}
}

// failedResult builds the finalized result recorded when a phase exhausts its
// retry.
func failedResult(def *session.PhaseDefinition, err error) session.PhaseResult {
	now := time.Now().UTC()
	return session.PhaseResult{
		Phase:     def.Name,
		Index:     def.Index,
		Status:    session.PhaseFailed,
		StartedAt: now,
		EndedAt:   now,
		Error:     err.Error(),
	}
}
