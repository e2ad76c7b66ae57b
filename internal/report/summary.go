// Package report aggregates persisted profiles into the run summary shown
// by the report command.
package report

import (
	"sort"

	"gramscout/internal/model"
)

// Summary holds roll-up figures over a set of profile records.
type Summary struct {
	Profiles       int
	TotalFollowers int64
	TotalPosts     int64
	MostFollowed   string
	MostPosts      string
}

// Summarize computes totals and leaders. Empty input yields a zero Summary.
func Summarize(records []model.ProfileRecord) Summary {
	var s Summary
	s.Profiles = len(records)
	var maxFollowers, maxPosts int64 = -1, -1
	for _, r := range records {
		s.TotalFollowers += r.Followers
		s.TotalPosts += r.PostsCount
		if r.Followers > maxFollowers {
			maxFollowers = r.Followers
			s.MostFollowed = r.Username
		}
		if r.PostsCount > maxPosts {
			maxPosts = r.PostsCount
			s.MostPosts = r.Username
		}
	}
	return s
}

// SortByFollowers returns a copy of records sorted by followers descending,
// for callers whose source is not already ordered.
func SortByFollowers(records []model.ProfileRecord) []model.ProfileRecord {
	out := make([]model.ProfileRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].Followers > out[j].Followers })
	return out
}
