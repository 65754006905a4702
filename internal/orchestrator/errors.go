package orchestrator

import (
	"fmt"

	"github.com/forgeworks/genforge/internal/session"
)

// DependencyViolationError reports a phase scheduled to run before one of its
// declared dependencies completed. It indicates a broken pipeline definition
// and is never retried.
type DependencyViolationError struct {
	Phase      string
	Dependency string
}

func (e *DependencyViolationError) Error() string {
	return fmt.Sprintf("phase %q depends on %q which has not completed", e.Phase, e.Dependency)
}

// FatalPipelineError halts the pipeline after a phase exhausted its retry.
// It carries the failing phase and every result finalized up to that point.
// Index is the phase's 1-based position in the pipeline; results keep their
// 0-based index for event-log joins.
type FatalPipelineError struct {
	Phase   string
	Index   int
	Results []session.PhaseResult
	Err     error
}

func (e *FatalPipelineError) Error() string {
	return fmt.Sprintf("pipeline halted at phase %q (index %d): %v", e.Phase, e.Index, e.Err)
}

func (e *FatalPipelineError) Unwrap() error {
	return e.Err
}
