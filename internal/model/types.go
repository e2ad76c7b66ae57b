package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ProfileSnapshot is a point-in-time capture of a profile's public metrics,
// produced by the fetcher. It is never persisted directly; it is converted
// to a ProfileRecord first.
type ProfileSnapshot struct {
	Username   string
	Followers  int64
	Following  int64
	PostsCount int64
	CapturedAt time.Time
}

// ProfileRecord is the durable form of a snapshot. Engagement is a
// percentage supplied by callers (0 when unknown); LastUpdated is set by
// the store on every write.
type ProfileRecord struct {
	Username    string
	Followers   int64
	Following   int64
	PostsCount  int64
	Engagement  float64
	LastUpdated time.Time
}

// PersistedSummary is returned by single-row upserts for observability.
type PersistedSummary struct {
	Username   string
	Followers  int64
	Engagement float64
}

var (
	ErrEmptyUsername = errors.New("empty username")
	ErrNegativeCount = errors.New("negative metric count")
)

// RecordFromSnapshot converts a snapshot to its persistent form with the
// default engagement of 0.
func RecordFromSnapshot(s ProfileSnapshot) ProfileRecord {
	return ProfileRecord{
		Username:   s.Username,
		Followers:  s.Followers,
		Following:  s.Following,
		PostsCount: s.PostsCount,
	}
}

// Normalize validates r and returns a copy ready for persistence. The input
// is never mutated: a missing engagement value (negative or NaN) is rewritten
// to 0 on the copy only. Negative counts and empty usernames are rejected.
func Normalize(r ProfileRecord) (ProfileRecord, error) {
	if r.Username == "" {
		return ProfileRecord{}, ErrEmptyUsername
	}
	if r.Followers < 0 || r.Following < 0 || r.PostsCount < 0 {
		return ProfileRecord{}, fmt.Errorf("%w: @%s", ErrNegativeCount, r.Username)
	}
	out := r
	if out.Engagement < 0 || math.IsNaN(out.Engagement) {
		out.Engagement = 0
	}
	return out, nil
}
