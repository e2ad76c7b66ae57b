// Package jobs wires the fetch loop to the store: fetch every target in
// order, journal each outcome, then persist.
package jobs

import (
	"context"
	"errors"
	"time"

	"gramscout/internal/fetch"
	"gramscout/internal/journal"
	"gramscout/internal/logging"
	"gramscout/internal/metrics"
	"gramscout/internal/model"
)

// ProfileStore is the persistence surface the run needs. Satisfied by
// *postgres.Store; faked in tests.
type ProfileStore interface {
	UpsertOne(ctx context.Context, rec model.ProfileRecord) (model.PersistedSummary, error)
	UpsertBatch(ctx context.Context, recs []model.ProfileRecord) (int, error)
}

// Options control one scrape run.
type Options struct {
	// Incremental persists each successful fetch immediately in its own
	// transaction. The default (false) matches the reference behavior:
	// persist once, after the whole fetch loop, so an interrupt loses the
	// run's data.
	Incremental bool
	// Journal, when non-nil, records the run and every outcome locally.
	Journal *journal.Journal
}

// Result summarizes a finished (or aborted) run.
type Result struct {
	RunID     string
	Succeeded int
	Total     int
	Persisted int
}

// ErrNothingPersisted marks a run that completed without writing any
// profile; the process exits non-zero on it.
var ErrNothingPersisted = errors.New("no profiles persisted")

// RunScrape executes one run: sequential fetches with the fetcher's fixed
// spacing, skip-and-continue on per-username failures, then upserts. Fetch
// errors never abort the run; persistence failures and cancellation do.
func RunScrape(ctx context.Context, f *fetch.Fetcher, store ProfileStore, usernames []string, opts Options) (Result, error) {
	start := time.Now()
	metrics.ScrapeRuns.Inc()
	defer metrics.ObserveScrapeDuration(start)

	res := Result{}
	if opts.Journal != nil {
		id, err := opts.Journal.BeginRun(ctx, start.UTC())
		if err != nil {
			return res, err
		}
		res.RunID = id
	}

	f.OnOutcome = func(o fetch.Outcome) {
		metrics.IncOutcome(o.Kind.String())
		if opts.Journal != nil {
			if err := opts.Journal.RecordOutcome(ctx, res.RunID, o); err != nil {
				logging.Warn("journal_write_failed", map[string]any{"username": o.Username, "error": err.Error()})
			}
		}
		switch o.Kind {
		case fetch.KindSuccess:
			logging.Info("profile_fetched", map[string]any{
				"username":  o.Username,
				"followers": o.Snapshot.Followers,
				"following": o.Snapshot.Following,
				"posts":     o.Snapshot.PostsCount,
			})
			if opts.Incremental {
				sum, err := store.UpsertOne(ctx, model.RecordFromSnapshot(o.Snapshot))
				if err != nil {
					metrics.PersistErrors.Inc()
					logging.Error("profile_persist_failed", map[string]any{"username": o.Username, "error": err.Error()})
					return
				}
				res.Persisted++
				metrics.ProfilesPersisted.Inc()
				logging.Info("profile_persisted", map[string]any{"username": sum.Username, "followers": sum.Followers})
			}
		default:
			logging.Warn("profile_skipped", map[string]any{
				"username": o.Username,
				"outcome":  o.Kind.String(),
				"detail":   o.Detail,
			})
		}
	}
	defer func() { f.OnOutcome = nil }()

	outcomes, fetchErr := f.FetchMany(ctx, usernames)
	stats := fetch.Summarize(outcomes)
	res.Succeeded, res.Total = stats.Succeeded, stats.Total

	if fetchErr == nil && !opts.Incremental {
		snaps := fetch.Snapshots(outcomes)
		if len(snaps) > 0 {
			records := make([]model.ProfileRecord, len(snaps))
			for i, s := range snaps {
				records[i] = model.RecordFromSnapshot(s)
			}
			n, err := store.UpsertBatch(ctx, records)
			if err != nil {
				metrics.PersistErrors.Inc()
				logging.Error("batch_persist_failed", map[string]any{"records": len(records), "error": err.Error()})
				finishJournal(ctx, opts.Journal, res)
				return res, err
			}
			res.Persisted = n
			metrics.ProfilesPersisted.Add(float64(n))
			logging.Info("batch_persisted", map[string]any{"records": n})
		}
	}

	finishJournal(ctx, opts.Journal, res)

	if fetchErr != nil {
		return res, fetchErr
	}
	logging.Info("scrape_done", map[string]any{
		"succeeded": res.Succeeded,
		"total":     res.Total,
		"persisted": res.Persisted,
	})
	if res.Persisted == 0 {
		return res, ErrNothingPersisted
	}
	return res, nil
}

func finishJournal(ctx context.Context, j *journal.Journal, res Result) {
	if j == nil {
		return
	}
	// Finish with a fresh context so an interrupt still closes out the run.
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := j.FinishRun(ctx, res.RunID, time.Now().UTC(), res.Succeeded, res.Total, res.Persisted); err != nil {
		logging.Warn("journal_finish_failed", map[string]any{"run_id": res.RunID, "error": err.Error()})
	}
}
