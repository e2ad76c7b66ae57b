package report

import (
	"testing"

	"gramscout/internal/model"
)

func TestSummarize(t *testing.T) {
	records := []model.ProfileRecord{
		{Username: "a", Followers: 100, PostsCount: 5},
		{Username: "b", Followers: 300, PostsCount: 1},
		{Username: "c", Followers: 200, PostsCount: 9},
	}
	s := Summarize(records)
	if s.Profiles != 3 {
		t.Fatalf("expected 3 profiles, got %d", s.Profiles)
	}
	if s.TotalFollowers != 600 || s.TotalPosts != 15 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.MostFollowed != "b" || s.MostPosts != "c" {
		t.Fatalf("unexpected leaders: %+v", s)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Profiles != 0 || s.MostFollowed != "" {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestSortByFollowersCopies(t *testing.T) {
	in := []model.ProfileRecord{{Username: "low", Followers: 1}, {Username: "high", Followers: 2}}
	out := SortByFollowers(in)
	if out[0].Username != "high" {
		t.Fatalf("not sorted: %+v", out)
	}
	if in[0].Username != "low" {
		t.Fatalf("input mutated: %+v", in)
	}
}
