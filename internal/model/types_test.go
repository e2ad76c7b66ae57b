package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestRecordFromSnapshotDefaultsEngagement(t *testing.T) {
	s := ProfileSnapshot{Username: "nike", Followers: 300, Following: 100, PostsCount: 5, CapturedAt: time.Now()}
	r := RecordFromSnapshot(s)
	if r.Username != "nike" || r.Followers != 300 || r.Following != 100 || r.PostsCount != 5 {
		t.Fatalf("unexpected record: %+v", r)
	}
	if r.Engagement != 0 {
		t.Fatalf("expected zero engagement, got %v", r.Engagement)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := ProfileRecord{Username: "nike", Followers: 1, Engagement: -1}
	out, err := Normalize(in)
	if err != nil {
		t.Fatal(err)
	}
	if out.Engagement != 0 {
		t.Fatalf("expected normalized engagement 0, got %v", out.Engagement)
	}
	if in.Engagement != -1 {
		t.Fatalf("input was mutated: %+v", in)
	}
}

func TestNormalizeRewritesNaN(t *testing.T) {
	out, err := Normalize(ProfileRecord{Username: "x", Engagement: math.NaN()})
	if err != nil {
		t.Fatal(err)
	}
	if out.Engagement != 0 {
		t.Fatalf("expected 0, got %v", out.Engagement)
	}
}

func TestNormalizeRejectsBadRecords(t *testing.T) {
	if _, err := Normalize(ProfileRecord{}); !errors.Is(err, ErrEmptyUsername) {
		t.Fatalf("expected ErrEmptyUsername, got %v", err)
	}
	if _, err := Normalize(ProfileRecord{Username: "a", Followers: -1}); !errors.Is(err, ErrNegativeCount) {
		t.Fatalf("expected ErrNegativeCount, got %v", err)
	}
	if _, err := Normalize(ProfileRecord{Username: "a", PostsCount: -3}); !errors.Is(err, ErrNegativeCount) {
		t.Fatalf("expected ErrNegativeCount, got %v", err)
	}
}

func TestNormalizeKeepsSuppliedEngagement(t *testing.T) {
	out, err := Normalize(ProfileRecord{Username: "a", Engagement: 5.25})
	if err != nil {
		t.Fatal(err)
	}
	if out.Engagement != 5.25 {
		t.Fatalf("expected 5.25, got %v", out.Engagement)
	}
}
