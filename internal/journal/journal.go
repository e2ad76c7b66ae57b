// Package journal keeps a local, per-run record of every fetch outcome so
// an operator can tell "fetch failed" apart from "fetch succeeded but write
// failed" after the process exits.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"gramscout/internal/fetch"
)

// Journal wraps a SQLite database holding runs and their outcomes.
type Journal struct{ sql *sql.DB }

func Open(path string) (*Journal, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	j := &Journal{sql: d}
	if err := j.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error { return j.sql.Close() }

func (j *Journal) migrate() error {
	_, err := j.sql.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
	  id TEXT PRIMARY KEY,
	  started_at INTEGER NOT NULL,
	  finished_at INTEGER,
	  succeeded INTEGER NOT NULL DEFAULT 0,
	  total INTEGER NOT NULL DEFAULT 0,
	  persisted INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS outcomes (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  run_id TEXT NOT NULL,
	  username TEXT NOT NULL,
	  outcome TEXT NOT NULL,
	  detail TEXT,
	  followers INTEGER NOT NULL DEFAULT 0,
	  following INTEGER NOT NULL DEFAULT 0,
	  posts_count INTEGER NOT NULL DEFAULT 0,
	  recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	`)
	return err
}

// BeginRun inserts a new run row and returns its id.
func (j *Journal) BeginRun(ctx context.Context, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := j.sql.ExecContext(ctx, `INSERT INTO runs(id, started_at) VALUES(?,?)`, id, startedAt.Unix())
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecordOutcome appends one terminal fetch outcome to the run.
func (j *Journal) RecordOutcome(ctx context.Context, runID string, o fetch.Outcome) error {
	_, err := j.sql.ExecContext(ctx,
		`INSERT INTO outcomes(run_id, username, outcome, detail, followers, following, posts_count, recorded_at)
		 VALUES(?,?,?,?,?,?,?,?)`,
		runID, o.Username, o.Kind.String(), o.Detail,
		o.Snapshot.Followers, o.Snapshot.Following, o.Snapshot.PostsCount,
		time.Now().UTC().Unix())
	return err
}

// FinishRun closes out the run with its final counters.
func (j *Journal) FinishRun(ctx context.Context, runID string, finishedAt time.Time, succeeded, total, persisted int) error {
	res, err := j.sql.ExecContext(ctx,
		`UPDATE runs SET finished_at=?, succeeded=?, total=?, persisted=? WHERE id=?`,
		finishedAt.Unix(), succeeded, total, persisted, runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New("unknown run id " + runID)
	}
	return nil
}

// Run is one recorded scrape run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Total      int
	Persisted  int
}

// OutcomeRow is one recorded username outcome.
type OutcomeRow struct {
	Username   string
	Outcome    string
	Detail     string
	Followers  int64
	Following  int64
	PostsCount int64
	RecordedAt time.Time
}

// LastRun returns the most recently started run, if any.
func (j *Journal) LastRun(ctx context.Context) (Run, bool, error) {
	var r Run
	var started int64
	var finished sql.NullInt64
	err := j.sql.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, succeeded, total, persisted
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`).
		Scan(&r.ID, &started, &finished, &r.Succeeded, &r.Total, &r.Persisted)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	r.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		r.FinishedAt = time.Unix(finished.Int64, 0).UTC()
	}
	return r, true, nil
}

// Outcomes returns the run's outcomes in recorded order.
func (j *Journal) Outcomes(ctx context.Context, runID string) ([]OutcomeRow, error) {
	rows, err := j.sql.QueryContext(ctx,
		`SELECT username, outcome, detail, followers, following, posts_count, recorded_at
		 FROM outcomes WHERE run_id=? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OutcomeRow
	for rows.Next() {
		var o OutcomeRow
		var ts int64
		if err := rows.Scan(&o.Username, &o.Outcome, &o.Detail, &o.Followers, &o.Following, &o.PostsCount, &ts); err != nil {
			return nil, err
		}
		o.RecordedAt = time.Unix(ts, 0).UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}
