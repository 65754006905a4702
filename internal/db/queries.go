package db

import (
	"database/sql"
	"fmt"
)

// PipelineEvent represents a row in the pipeline_events table.
type PipelineEvent struct {
	ID        int
	SessionID string
	Event     string
	Phase     string
	Attempt   int
	Detail    string
	Timestamp string
}

// LogPipelineEvent inserts a pipeline lifecycle event.
func (d *DB) LogPipelineEvent(sessionID, event, phase string, attempt int, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO pipeline_events (session_id, event, phase, attempt, detail) VALUES (?, ?, ?, ?, ?)`,
		sessionID, event, phase, attempt, detail,
	)
	if err != nil {
		return fmt.Errorf("log pipeline event: %w", err)
	}
	return nil
}

// GetPipelineEvents returns all events for a session, oldest first.
func (d *DB) GetPipelineEvents(sessionID string) ([]PipelineEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, session_id, event, phase, attempt, detail, timestamp
		 FROM pipeline_events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get pipeline events: %w", err)
	}
	defer rows.Close()

	var events []PipelineEvent
	for rows.Next() {
		var e PipelineEvent
		var phase, detail sql.NullString
		var attempt sql.NullInt64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Event, &phase, &attempt, &detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan pipeline event: %w", err)
		}
		e.Phase = phase.String
		e.Attempt = int(attempt.Int64)
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// LogGenerationCall records one collaborator invocation.
func (d *DB) LogGenerationCall(sessionID, phase string, attempt int, model string, fallback bool, durationMs, promptBytes, outputBytes int) error {
	_, err := d.conn.Exec(
		`INSERT INTO generation_calls (session_id, phase, attempt, model, fallback, duration_ms, prompt_bytes, output_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, phase, attempt, model, fallback, durationMs, promptBytes, outputBytes,
	)
	if err != nil {
		return fmt.Errorf("log generation call: %w", err)
	}
	return nil
}

// LogCorrectionRun records one correction engine invocation.
func (d *DB) LogCorrectionRun(sessionID, phase string, attempt, iterations, original, fixed, remaining int, success bool) error {
	_, err := d.conn.Exec(
		`INSERT INTO correction_runs (session_id, phase, attempt, iterations, original_issues, fixed_issues, remaining_issues, success)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, phase, attempt, iterations, original, fixed, remaining, success,
	)
	if err != nil {
		return fmt.Errorf("log correction run: %w", err)
	}
	return nil
}

// LogCheckRun inserts a check run record.
func (d *DB) LogCheckRun(sessionID, phase string, attempt int, checkName string, passed, autoFixed bool, exitCode, durationMs int, summary, findings string) error {
	_, err := d.conn.Exec(
		`INSERT INTO check_runs (session_id, phase, attempt, check_name, passed, auto_fixed, exit_code, duration_ms, summary, findings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, phase, attempt, checkName, passed, autoFixed, exitCode, durationMs, summary, findings,
	)
	if err != nil {
		return fmt.Errorf("log check run: %w", err)
	}
	return nil
}

// Stats holds aggregate numbers computed from the event log.
type Stats struct {
	Sessions        int     `json:"sessions"`
	GenerationCalls int     `json:"generation_calls"`
	FallbackCalls   int     `json:"fallback_calls"`
	FallbackRate    float64 `json:"fallback_rate"`
	CorrectionRuns  int     `json:"correction_runs"`
	AvgIterations   float64 `json:"avg_iterations"`
	IssuesFixed     int     `json:"issues_fixed"`
	IssuesRemaining int     `json:"issues_remaining"`
}

// GetStats aggregates across all sessions in the event log.
func (d *DB) GetStats() (*Stats, error) {
	var s Stats

	err := d.conn.QueryRow(`SELECT COUNT(DISTINCT session_id) FROM pipeline_events`).Scan(&s.Sessions)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	err = d.conn.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(fallback), 0) FROM generation_calls`,
	).Scan(&s.GenerationCalls, &s.FallbackCalls)
	if err != nil {
		return nil, fmt.Errorf("count generation calls: %w", err)
	}
	if s.GenerationCalls > 0 {
		s.FallbackRate = float64(s.FallbackCalls) / float64(s.GenerationCalls)
	}

	var avg sql.NullFloat64
	err = d.conn.QueryRow(
		`SELECT COUNT(*), AVG(iterations), COALESCE(SUM(fixed_issues), 0), COALESCE(SUM(remaining_issues), 0)
		 FROM correction_runs`,
	).Scan(&s.CorrectionRuns, &avg, &s.IssuesFixed, &s.IssuesRemaining)
	if err != nil {
		return nil, fmt.Errorf("aggregate correction runs: %w", err)
	}
	s.AvgIterations = avg.Float64

	return &s, nil
}

// PhaseDuration is one row of the per-phase duration report.
type PhaseDuration struct {
	Phase         string  `json:"phase"`
	Calls         int     `json:"calls"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// GetPhaseDurations reports average generation duration per phase.
func (d *DB) GetPhaseDurations() ([]PhaseDuration, error) {
	rows, err := d.conn.Query(
		`SELECT phase, COUNT(*), AVG(duration_ms) FROM generation_calls GROUP BY phase ORDER BY phase`,
	)
	if err != nil {
		return nil, fmt.Errorf("get phase durations: %w", err)
	}
	defer rows.Close()

	var out []PhaseDuration
	for rows.Next() {
		var pd PhaseDuration
		var avg sql.NullFloat64
		if err := rows.Scan(&pd.Phase, &pd.Calls, &avg); err != nil {
			return nil, fmt.Errorf("scan phase duration: %w", err)
		}
		pd.AvgDurationMs = avg.Float64
		out = append(out, pd)
	}
	return out, rows.Err()
}
