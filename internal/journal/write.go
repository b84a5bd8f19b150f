package journal

import (
	"context"
	"fmt"

	"github.com/roach88/samwire/internal/engine"
)

// Write appends ev to run. Writing the same (run, seq) twice keeps the
// first row.
func (j *Journal) Write(ctx context.Context, run string, ev engine.Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO loop_events
		(run, seq, kind, name, token, outcome, phase, error, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run, seq) DO NOTHING
	`,
		run,
		ev.Seq,
		string(ev.Kind),
		ev.Name,
		ev.Token,
		string(ev.Outcome),
		string(ev.Phase),
		ev.Error,
		ev.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("write event %d: %w", ev.Seq, err)
	}
	return nil
}

// Recorder returns an observer writing every event to run. Observers
// cannot fail, so write errors are logged and dropped.
func (j *Journal) Recorder(run string) engine.Observer {
	return engine.ObserverFunc(func(ev engine.Event) {
		if err := j.Write(context.Background(), run, ev); err != nil {
			j.logger.Error("journal write failed", "run", run, "seq", ev.Seq, "error", err)
		}
	})
}

// DeleteRun removes every event of run and returns how many were removed.
// Callers that reuse a run name across sessions clear it first, since
// Write keeps the first row for each sequence number.
func (j *Journal) DeleteRun(ctx context.Context, run string) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM loop_events WHERE run = ?`, run)
	if err != nil {
		return 0, fmt.Errorf("delete run %q: %w", run, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete run %q: %w", run, err)
	}
	return n, nil
}
