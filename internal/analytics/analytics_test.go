package analytics

import (
	"database/sql"
	"testing"

	"github.com/forgeworks/genforge/internal/db"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func exec(t *testing.T, conn *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := conn.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func TestQueryPhaseWallTimes(t *testing.T) {
	d := testDB(t)
	c := d.Conn()

	// Session A: scaffold takes 30s, components takes 90s.
	exec(t, c, `INSERT INTO pipeline_events (session_id, event, phase, timestamp) VALUES ('a', 'started', '', '2026-06-01 10:00:00')`)
	exec(t, c, `INSERT INTO pipeline_events (session_id, event, phase, timestamp) VALUES ('a', 'phase_completed', 'scaffold', '2026-06-01 10:00:30')`)
	exec(t, c, `INSERT INTO pipeline_events (session_id, event, phase, timestamp) VALUES ('a', 'phase_completed', 'components', '2026-06-01 10:02:00')`)

	// Session B: scaffold takes 60s.
	exec(t, c, `INSERT INTO pipeline_events (session_id, event, phase, timestamp) VALUES ('b', 'started', '', '2026-06-01 11:00:00')`)
	exec(t, c, `INSERT INTO pipeline_events (session_id, event, phase, timestamp) VALUES ('b', 'phase_completed', 'scaffold', '2026-06-01 11:01:00')`)

	results, err := QueryPhaseWallTimes(d, "")
	if err != nil {
		t.Fatalf("QueryPhaseWallTimes: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d phases, want 2", len(results))
	}

	// Sorted by phase name: components then scaffold.
	components := results[0]
	if components.Phase != "components" || components.Count != 1 {
		t.Errorf("components = %+v", components)
	}
	if components.Avg != 90 {
		t.Errorf("components avg = %.1f, want 90", components.Avg)
	}

	scaffold := results[1]
	if scaffold.Count != 2 {
		t.Errorf("scaffold count = %d, want 2", scaffold.Count)
	}
	if scaffold.Avg != 45 {
		t.Errorf("scaffold avg = %.1f, want 45", scaffold.Avg)
	}
	if scaffold.P50 != 45 {
		t.Errorf("scaffold p50 = %.1f, want 45", scaffold.P50)
	}
}

func TestQueryPhaseWallTimesSinceFilter(t *testing.T) {
	d := testDB(t)
	c := d.Conn()

	exec(t, c, `INSERT INTO pipeline_events (session_id, event, phase, timestamp) VALUES ('a', 'started', '', '2026-01-01 10:00:00')`)
	exec(t, c, `INSERT INTO pipeline_events (session_id, event, phase, timestamp) VALUES ('a', 'phase_completed', 'scaffold', '2026-01-01 10:00:30')`)

	results, err := QueryPhaseWallTimes(d, "2026-06-01")
	if err != nil {
		t.Fatalf("QueryPhaseWallTimes: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d phases, want 0 after since filter", len(results))
	}
}

func TestQueryCheckFailures(t *testing.T) {
	d := testDB(t)
	c := d.Conn()

	exec(t, c, `INSERT INTO check_runs (session_id, phase, attempt, check_name, passed, auto_fixed, summary) VALUES ('a', 'components', 1, 'lint', 0, 1, '3 errors')`)
	exec(t, c, `INSERT INTO check_runs (session_id, phase, attempt, check_name, passed, auto_fixed, summary) VALUES ('a', 'components', 1, 'lint', 0, 0, '3 errors')`)
	exec(t, c, `INSERT INTO check_runs (session_id, phase, attempt, check_name, passed, auto_fixed, summary) VALUES ('b', 'components', 1, 'lint', 1, 0, '')`)
	exec(t, c, `INSERT INTO check_runs (session_id, phase, attempt, check_name, passed, auto_fixed, summary) VALUES ('a', 'components', 1, 'typecheck', 1, 0, '')`)

	results, err := QueryCheckFailures(d, "")
	if err != nil {
		t.Fatalf("QueryCheckFailures: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d checks, want 2", len(results))
	}

	// lint fails most, so it sorts first.
	lint := results[0]
	if lint.Check != "lint" {
		t.Fatalf("first check = %q, want lint", lint.Check)
	}
	if lint.Total != 3 {
		t.Errorf("lint total = %d, want 3", lint.Total)
	}
	if lint.FailRate != 66.7 {
		t.Errorf("lint fail rate = %.1f, want 66.7", lint.FailRate)
	}
	if lint.CommonSummaries != "3 errors" {
		t.Errorf("lint summaries = %q", lint.CommonSummaries)
	}
}

func TestQueryIterationDist(t *testing.T) {
	d := testDB(t)
	c := d.Conn()

	exec(t, c, `INSERT INTO correction_runs (session_id, phase, attempt, iterations, original_issues, fixed_issues, remaining_issues, success) VALUES ('a', 'scaffold', 1, 0, 0, 0, 0, 1)`)
	exec(t, c, `INSERT INTO correction_runs (session_id, phase, attempt, iterations, original_issues, fixed_issues, remaining_issues, success) VALUES ('b', 'scaffold', 1, 1, 2, 2, 0, 1)`)
	exec(t, c, `INSERT INTO correction_runs (session_id, phase, attempt, iterations, original_issues, fixed_issues, remaining_issues, success) VALUES ('c', 'scaffold', 1, 3, 5, 3, 2, 0)`)

	results, err := QueryIterationDist(d, "")
	if err != nil {
		t.Fatalf("QueryIterationDist: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d phases, want 1", len(results))
	}

	dist := results[0]
	if dist.Total != 3 {
		t.Errorf("total = %d, want 3", dist.Total)
	}
	if dist.Zero != 33.3 || dist.One != 33.3 || dist.ThreePlus != 33.3 {
		t.Errorf("distribution = %+v", dist)
	}
}

func TestQuerySessionThroughput(t *testing.T) {
	d := testDB(t)
	c := d.Conn()

	exec(t, c, `INSERT INTO pipeline_events (session_id, event, timestamp) VALUES ('a', 'created', '2026-06-01 10:00:00')`)
	exec(t, c, `INSERT INTO pipeline_events (session_id, event, timestamp) VALUES ('a', 'completed', '2026-06-01 10:05:00')`)
	exec(t, c, `INSERT INTO pipeline_events (session_id, event, timestamp) VALUES ('b', 'created', '2026-06-02 09:00:00')`)
	exec(t, c, `INSERT INTO pipeline_events (session_id, event, timestamp) VALUES ('b', 'failed', '2026-06-02 09:01:00')`)

	results, err := QuerySessionThroughput(d, "")
	if err != nil {
		t.Fatalf("QuerySessionThroughput: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d periods, want 2", len(results))
	}

	// Newest first.
	if results[0].Period != "2026-06-02" || results[0].Failed != 1 {
		t.Errorf("period[0] = %+v", results[0])
	}
	if results[1].Period != "2026-06-01" || results[1].Completed != 1 {
		t.Errorf("period[1] = %+v", results[1])
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	if got := percentile(sorted, 50); got != 25 {
		t.Errorf("p50 = %.1f, want 25", got)
	}
	if got := percentile(sorted, 95); got != 38.5 {
		t.Errorf("p95 = %.1f, want 38.5", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("p50 of empty = %.1f, want 0", got)
	}
}
