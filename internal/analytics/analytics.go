// Package analytics computes reports over the SQLite event log: phase wall
// time, check failure rates, correction iteration distributions, and session
// throughput.
package analytics

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
)

// DB is the interface for database queries used by analytics.
type DB interface {
	Conn() *sql.DB
}

// PhaseWallTime holds wall-clock duration stats for a phase, in seconds.
type PhaseWallTime struct {
	Phase string  `json:"phase"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg_seconds"`
	P50   float64 `json:"p50_seconds"`
	P95   float64 `json:"p95_seconds"`
}

// QueryPhaseWallTimes returns average and percentile wall times per phase.
// Each phase_completed event is paired with the most recent prior started or
// phase_completed event for the same session; the gap is attributed to the
// completed phase.
func QueryPhaseWallTimes(database DB, since string) ([]PhaseWallTime, error) {
	query := `
		SELECT pe1.phase,
			(julianday(pe1.timestamp) -
			 julianday((SELECT MAX(pe2.timestamp) FROM pipeline_events pe2
			            WHERE pe2.session_id = pe1.session_id
			            AND pe2.event IN ('started', 'phase_completed')
			            AND pe2.id < pe1.id))) * 86400 as seconds
		FROM pipeline_events pe1
		WHERE pe1.event = 'phase_completed'
		AND pe1.phase != ''`

	args := []interface{}{}
	if since != "" {
		query += ` AND pe1.timestamp >= ?`
		args = append(args, since)
	}

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query phase wall times: %w", err)
	}
	defer rows.Close()

	durations := make(map[string][]float64)
	for rows.Next() {
		var phase string
		var seconds sql.NullFloat64
		if err := rows.Scan(&phase, &seconds); err != nil {
			return nil, fmt.Errorf("scan phase wall time: %w", err)
		}
		if !seconds.Valid || seconds.Float64 < 0 {
			continue
		}
		durations[phase] = append(durations[phase], seconds.Float64)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var results []PhaseWallTime
	for phase, values := range durations {
		sort.Float64s(values)
		results = append(results, PhaseWallTime{
			Phase: phase,
			Count: len(values),
			Avg:   avg(values),
			P50:   percentile(values, 50),
			P95:   percentile(values, 95),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Phase < results[j].Phase
	})
	return results, nil
}

// CheckFailure holds failure stats for a specific check.
type CheckFailure struct {
	Check           string  `json:"check"`
	Total           int     `json:"total"`
	FailRate        float64 `json:"fail_rate_pct"`
	AutoFixRate     float64 `json:"auto_fix_rate_pct"`
	CommonSummaries string  `json:"common_summaries,omitempty"`
}

// QueryCheckFailures returns which checks fail most and their auto-fix rates.
func QueryCheckFailures(database DB, since string) ([]CheckFailure, error) {
	query := `
		SELECT check_name,
			COUNT(*) as total,
			SUM(CASE WHEN passed = 0 THEN 1 ELSE 0 END) as failed,
			SUM(CASE WHEN auto_fixed = 1 THEN 1 ELSE 0 END) as auto_fixed
		FROM check_runs`

	args := []interface{}{}
	if since != "" {
		query += ` WHERE timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY check_name ORDER BY failed DESC`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query check failures: %w", err)
	}
	defer rows.Close()

	var results []CheckFailure
	for rows.Next() {
		var checkName string
		var total, failed, autoFixed int
		if err := rows.Scan(&checkName, &total, &failed, &autoFixed); err != nil {
			return nil, fmt.Errorf("scan check failure: %w", err)
		}
		results = append(results, CheckFailure{
			Check:       checkName,
			Total:       total,
			FailRate:    pct(failed, total),
			AutoFixRate: pct(autoFixed, maxInt(failed, 1)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Attach the most frequent failure summaries per check.
	for i := range results {
		summaryQuery := `
			SELECT summary, COUNT(*) as cnt
			FROM check_runs
			WHERE check_name = ? AND passed = 0 AND summary != ''`
		sArgs := []interface{}{results[i].Check}
		if since != "" {
			summaryQuery += ` AND timestamp >= ?`
			sArgs = append(sArgs, since)
		}
		summaryQuery += ` GROUP BY summary ORDER BY cnt DESC LIMIT 2`

		sRows, err := database.Conn().Query(summaryQuery, sArgs...)
		if err != nil {
			continue
		}
		var summaries []string
		for sRows.Next() {
			var summary string
			var cnt int
			if err := sRows.Scan(&summary, &cnt); err != nil {
				break
			}
			if summary != "" {
				summaries = append(summaries, summary)
			}
		}
		_ = sRows.Err()
		sRows.Close()
		if len(summaries) > 0 {
			results[i].CommonSummaries = summaries[0]
			if len(summaries) > 1 {
				results[i].CommonSummaries += ", " + summaries[1]
			}
		}
	}

	return results, nil
}

// IterationDist holds the correction iteration distribution for a phase.
type IterationDist struct {
	Phase     string  `json:"phase"`
	Total     int     `json:"total"`
	Zero      float64 `json:"zero_pct"`
	One       float64 `json:"one_pct"`
	Two       float64 `json:"two_pct"`
	ThreePlus float64 `json:"three_plus_pct"`
}

// QueryIterationDist returns how many correction passes each phase needed.
// A high three-plus share means generated output regularly arrives dirty.
func QueryIterationDist(database DB, since string) ([]IterationDist, error) {
	query := `
		SELECT phase,
			COUNT(*) as total,
			SUM(CASE WHEN iterations = 0 THEN 1 ELSE 0 END) as zero,
			SUM(CASE WHEN iterations = 1 THEN 1 ELSE 0 END) as one,
			SUM(CASE WHEN iterations = 2 THEN 1 ELSE 0 END) as two,
			SUM(CASE WHEN iterations >= 3 THEN 1 ELSE 0 END) as three_plus
		FROM correction_runs`

	args := []interface{}{}
	if since != "" {
		query += ` WHERE timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY phase ORDER BY phase`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query iteration distribution: %w", err)
	}
	defer rows.Close()

	var results []IterationDist
	for rows.Next() {
		var phase string
		var total, zero, one, two, threePlus int
		if err := rows.Scan(&phase, &total, &zero, &one, &two, &threePlus); err != nil {
			return nil, fmt.Errorf("scan iteration distribution: %w", err)
		}
		results = append(results, IterationDist{
			Phase:     phase,
			Total:     total,
			Zero:      pct(zero, total),
			One:       pct(one, total),
			Two:       pct(two, total),
			ThreePlus: pct(threePlus, total),
		})
	}
	return results, rows.Err()
}

// SessionThroughput holds session counts grouped by day.
type SessionThroughput struct {
	Period    string `json:"period"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

// QuerySessionThroughput returns session outcomes grouped by day, newest
// first, capped at 14 periods.
func QuerySessionThroughput(database DB, since string) ([]SessionThroughput, error) {
	query := `
		SELECT
			strftime('%Y-%m-%d', timestamp) as period,
			SUM(CASE WHEN event = 'created' THEN 1 ELSE 0 END) as created,
			SUM(CASE WHEN event = 'completed' THEN 1 ELSE 0 END) as completed,
			SUM(CASE WHEN event = 'failed' THEN 1 ELSE 0 END) as failed
		FROM pipeline_events
		WHERE event IN ('created', 'completed', 'failed')`

	args := []interface{}{}
	if since != "" {
		query += ` AND timestamp >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY period ORDER BY period DESC LIMIT 14`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session throughput: %w", err)
	}
	defer rows.Close()

	var results []SessionThroughput
	for rows.Next() {
		var st SessionThroughput
		if err := rows.Scan(&st.Period, &st.Created, &st.Completed, &st.Failed); err != nil {
			return nil, fmt.Errorf("scan throughput: %w", err)
		}
		results = append(results, st)
	}
	return results, rows.Err()
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
