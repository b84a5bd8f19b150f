package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/samwire/internal/engine"
)

const selectEvents = `
	SELECT seq, kind, name, token, outcome, phase, error, duration_ns
	FROM loop_events
`

// Read returns the events of run in sequence order. Returns an empty
// slice, not nil, for an unknown run.
func (j *Journal) Read(ctx context.Context, run string) ([]engine.Event, error) {
	rows, err := j.db.QueryContext(ctx, selectEvents+`
		WHERE run = ?
		ORDER BY seq ASC, id ASC
	`, run)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanEvents(rows)
}

// ReadToken returns every event carrying a cancellation token, across
// runs, in sequence order.
func (j *Journal) ReadToken(ctx context.Context, token string) ([]engine.Event, error) {
	rows, err := j.db.QueryContext(ctx, selectEvents+`
		WHERE token = ?
		ORDER BY seq ASC, id ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query token events: %w", err)
	}
	return scanEvents(rows)
}

// Runs lists run names in first-write order.
func (j *Journal) Runs(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run FROM loop_events
		GROUP BY run
		ORDER BY MIN(id) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []string{}
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Outcomes counts proposal outcomes for run.
func (j *Journal) Outcomes(ctx context.Context, run string) (map[engine.Outcome]int, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*)
		FROM loop_events
		WHERE run = ? AND kind = ?
		GROUP BY outcome
		ORDER BY outcome ASC
	`, run, string(engine.KindProposal))
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[engine.Outcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		counts[engine.Outcome(outcome)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return counts, nil
}

func scanEvents(rows *sql.Rows) ([]engine.Event, error) {
	defer rows.Close()

	events := []engine.Event{}
	for rows.Next() {
		var (
			ev                   engine.Event
			kind, outcome, phase string
			durationNS           int64
		)
		if err := rows.Scan(&ev.Seq, &kind, &ev.Name, &ev.Token, &outcome, &phase, &ev.Error, &durationNS); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = engine.Kind(kind)
		ev.Outcome = engine.Outcome(outcome)
		ev.Phase = engine.Phase(phase)
		ev.Duration = time.Duration(durationNS)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
