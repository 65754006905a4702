package session

import "time"

// Session status values.
const (
	StatusInitializing = "initializing"
	StatusRunning      = "running"
	StatusCompleted    = "completed"
	StatusFailed       = "failed"
)

// Phase result status values. Transitions are forward-only:
// pending -> running -> completed|failed.
const (
	PhasePending   = "pending"
	PhaseRunning   = "running"
	PhaseCompleted = "completed"
	PhaseFailed    = "failed"
)

// PhaseDefinition describes one ordered unit of the pipeline. Definitions are
// immutable once a session starts.
type PhaseDefinition struct {
	Name        string   `json:"name" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Index       int      `json:"index" yaml:"-"`
	DependsOn   []string `json:"depends_on,omitempty" yaml:"depends_on"`
	Outputs     []string `json:"outputs,omitempty" yaml:"outputs"`
	Template    string   `json:"template,omitempty" yaml:"prompt_template"`
	Checks      []string `json:"checks,omitempty" yaml:"checks"`
}

// PhaseMetrics holds the per-phase numbers folded into the session summary.
type PhaseMetrics struct {
	DurationMs     int64 `json:"duration_ms"`
	Files          int   `json:"files"`
	Lines          int   `json:"lines"`
	GeneratedTests int   `json:"generated_tests"`
}

// PhaseResult records the outcome of a single phase. It is created when the
// phase starts running, mutated only by the owning phase, and frozen once the
// status reaches completed or failed.
type PhaseResult struct {
	Phase     string       `json:"phase"`
	Index     int          `json:"index"`
	Status    string       `json:"status"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   time.Time    `json:"ended_at,omitempty"`
	Artifacts []string     `json:"artifacts,omitempty"`
	Error     string       `json:"error,omitempty"`
	Warnings  []string     `json:"warnings,omitempty"`
	Metrics   PhaseMetrics `json:"metrics"`
}

// Metrics is the aggregate summary attached to a finished session.
type Metrics struct {
	TotalDurationMs   int64   `json:"total_duration_ms"`
	TotalFiles        int     `json:"total_files"`
	TotalLines        int     `json:"total_lines"`
	GeneratedTests    int     `json:"generated_tests"`
	EstimatedCoverage float64 `json:"estimated_coverage"`
}

// Session is the state container for one complete pipeline run. It is owned
// exclusively by the orchestrator for its lifetime; everyone else reads a
// Snapshot.
type Session struct {
	ID           string            `json:"id"`
	Pipeline     string            `json:"pipeline"`
	StartedAt    time.Time         `json:"started_at"`
	Phases       []PhaseDefinition `json:"phases"`
	CurrentIndex int               `json:"current_index"`
	Results      []PhaseResult     `json:"results"`
	Status       string            `json:"status"`
	Context      map[string]string `json:"context,omitempty"`
	Summary      *Metrics          `json:"summary,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// New creates a session in the initializing state. Phase indexes are assigned
// from list order.
func New(id, pipeline string, phases []PhaseDefinition, initialContext map[string]string) *Session {
	defs := make([]PhaseDefinition, len(phases))
	copy(defs, phases)
	for i := range defs {
		defs[i].Index = i
	}
	ctx := make(map[string]string, len(initialContext))
	for k, v := range initialContext {
		ctx[k] = v
	}
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Pipeline:  pipeline,
		StartedAt: now,
		Phases:    defs,
		Results:   []PhaseResult{},
		Status:    StatusInitializing,
		Context:   ctx,
		UpdatedAt: now,
	}
}

// Definition returns the phase definition at index i.
func (s *Session) Definition(i int) *PhaseDefinition {
	if i < 0 || i >= len(s.Phases) {
		return nil
	}
	return &s.Phases[i]
}

// ResultFor returns the recorded result for a phase name, or nil.
func (s *Session) ResultFor(name string) *PhaseResult {
	for i := range s.Results {
		if s.Results[i].Phase == name {
			return &s.Results[i]
		}
	}
	return nil
}

// Append records a finalized phase result and advances the current index.
// The index is monotonically non-decreasing.
func (s *Session) Append(r PhaseResult) {
	s.Results = append(s.Results, r)
	if next := r.Index + 1; next > s.CurrentIndex {
		s.CurrentIndex = next
	}
	s.UpdatedAt = time.Now().UTC()
}

// Snapshot returns a deep copy safe for consumers to hold while the
// orchestrator keeps mutating the session.
func (s *Session) Snapshot() Session {
	out := *s
	out.Phases = append([]PhaseDefinition(nil), s.Phases...)
	out.Results = make([]PhaseResult, len(s.Results))
	for i, r := range s.Results {
		r.Artifacts = append([]string(nil), r.Artifacts...)
		r.Warnings = append([]string(nil), r.Warnings...)
		out.Results[i] = r
	}
	out.Context = make(map[string]string, len(s.Context))
	for k, v := range s.Context {
		out.Context[k] = v
	}
	if s.Summary != nil {
		sum := *s.Summary
		out.Summary = &sum
	}
	return out
}
