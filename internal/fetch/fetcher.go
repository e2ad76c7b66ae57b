package fetch

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"gramscout/internal/igclient"
	"gramscout/internal/model"
)

// Kind is the terminal classification of one username's fetch. Every fetch
// maps to exactly one kind; there is no retry state at this level.
type Kind int

const (
	KindSuccess Kind = iota
	KindNotFound
	KindPrivate
	KindAuthRequired
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNotFound:
		return "not_found"
	case KindPrivate:
		return "private"
	case KindAuthRequired:
		return "auth_required"
	default:
		return "transient_error"
	}
}

// Outcome is the result of fetching one username. Snapshot is populated
// only for KindSuccess; Detail carries the original message for
// KindTransient.
type Outcome struct {
	Username string
	Kind     Kind
	Snapshot model.ProfileSnapshot
	Detail   string
}

// Stats summarize a run for reporting.
type Stats struct {
	Succeeded int
	Total     int
}

// Fetcher drives sequential fetches against a profile source with a fixed
// minimum spacing between requests. It is not safe for concurrent use; the
// pipeline is single-threaded by design.
type Fetcher struct {
	src     igclient.Source
	limiter *rate.Limiter
	now     func() time.Time

	// OnOutcome, when set, is invoked for every terminal outcome in input
	// order. Used by the driver for journaling and incremental persistence.
	OnOutcome func(Outcome)
}

// DefaultDelay is the spacing between consecutive provider requests. The
// provider throttles aggressive callers, so requests stay strictly
// sequential with this gap as the only backpressure mechanism.
const DefaultDelay = 3 * time.Second

func New(src igclient.Source, delay time.Duration) *Fetcher {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Fetcher{
		src:     src,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		now:     time.Now,
	}
}

// Fetch performs exactly one call against the source and classifies the
// result. Provider failures the classifier does not recognize are coerced
// to transient outcomes carrying the original message, never dropped.
func (f *Fetcher) Fetch(ctx context.Context, username string) Outcome {
	stats, err := f.src.Resolve(ctx, username)
	if err != nil {
		return classify(username, err)
	}
	return Outcome{
		Username: username,
		Kind:     KindSuccess,
		Snapshot: model.ProfileSnapshot{
			Username:   username,
			Followers:  stats.Followers,
			Following:  stats.Following,
			PostsCount: stats.PostsCount,
			CapturedAt: f.now().UTC(),
		},
	}
}

// FetchMany fetches usernames in input order, spacing consecutive requests
// by the configured delay (the limiter's first token is free, so n
// usernames incur n-1 waits). A failed username is skipped, not fatal; the
// returned slice holds one outcome per processed username in order. The
// error is non-nil only when ctx is cancelled, in which case the outcomes
// gathered so far are still returned.
func (f *Fetcher) FetchMany(ctx context.Context, usernames []string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(usernames))
	for _, username := range usernames {
		if err := f.limiter.Wait(ctx); err != nil {
			return outcomes, err
		}
		o := f.Fetch(ctx, username)
		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
		outcomes = append(outcomes, o)
		if f.OnOutcome != nil {
			f.OnOutcome(o)
		}
	}
	return outcomes, nil
}

// classify partitions source failures into the closed outcome set.
func classify(username string, err error) Outcome {
	o := Outcome{Username: username}
	switch {
	case errors.Is(err, igclient.ErrNotExists):
		o.Kind = KindNotFound
	case errors.Is(err, igclient.ErrPrivateNotFollowed):
		o.Kind = KindPrivate
	case errors.Is(err, igclient.ErrLoginRequired):
		o.Kind = KindAuthRequired
	default:
		o.Kind = KindTransient
		o.Detail = err.Error()
	}
	return o
}

// Snapshots extracts the successful snapshots from outcomes, preserving
// input order.
func Snapshots(outcomes []Outcome) []model.ProfileSnapshot {
	out := make([]model.ProfileSnapshot, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Kind == KindSuccess {
			out = append(out, o.Snapshot)
		}
	}
	return out
}

// Summarize counts successes against the total processed.
func Summarize(outcomes []Outcome) Stats {
	s := Stats{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Kind == KindSuccess {
			s.Succeeded++
		}
	}
	return s
}
