package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gramscout/internal/igclient"
)

// fakeSource resolves from a fixed map; unknown usernames yield errNot.
type fakeSource struct {
	profiles map[string]igclient.ProfileStats
	errs     map[string]error
	calls    []string
}

func (f *fakeSource) Resolve(ctx context.Context, username string) (igclient.ProfileStats, error) {
	f.calls = append(f.calls, username)
	if err, ok := f.errs[username]; ok {
		return igclient.ProfileStats{}, err
	}
	if p, ok := f.profiles[username]; ok {
		return p, nil
	}
	return igclient.ProfileStats{}, fmt.Errorf("@%s: %w", username, igclient.ErrNotExists)
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		profiles: map[string]igclient.ProfileStats{
			"a": {Username: "a", Followers: 10, Following: 1, PostsCount: 2},
			"b": {Username: "b", Followers: 20, Following: 2, PostsCount: 4},
		},
		errs: map[string]error{},
	}
}

func TestFetchManySkipAndContinue(t *testing.T) {
	src := newFakeSource()
	f := New(src, 0)
	outcomes, err := f.FetchMany(context.Background(), []string{"a", "missing", "b"})
	if err != nil {
		t.Fatal(err)
	}
	snaps := Snapshots(outcomes)
	if len(snaps) != 2 || snaps[0].Username != "a" || snaps[1].Username != "b" {
		t.Fatalf("unexpected snapshots: %+v", snaps)
	}
	stats := Summarize(outcomes)
	if stats.Succeeded != 2 || stats.Total != 3 {
		t.Fatalf("expected 2/3, got %d/%d", stats.Succeeded, stats.Total)
	}
	if len(src.calls) != 3 {
		t.Fatalf("expected one source call per username, got %v", src.calls)
	}
}

func TestClassification(t *testing.T) {
	src := newFakeSource()
	src.errs["priv"] = fmt.Errorf("@priv: %w", igclient.ErrPrivateNotFollowed)
	src.errs["walled"] = fmt.Errorf("@walled: %w", igclient.ErrLoginRequired)
	src.errs["flaky"] = errors.New("connection reset by peer")
	f := New(src, 0)
	ctx := context.Background()

	cases := []struct {
		username string
		kind     Kind
	}{
		{"a", KindSuccess},
		{"missing", KindNotFound},
		{"priv", KindPrivate},
		{"walled", KindAuthRequired},
		{"flaky", KindTransient},
	}
	for _, tc := range cases {
		o := f.Fetch(ctx, tc.username)
		if o.Kind != tc.kind {
			t.Errorf("@%s: expected %s, got %s", tc.username, tc.kind, o.Kind)
		}
	}
	if o := f.Fetch(ctx, "flaky"); o.Detail != "connection reset by peer" {
		t.Errorf("transient outcome must carry the original message, got %q", o.Detail)
	}
}

func TestFetchSuccessSnapshot(t *testing.T) {
	src := newFakeSource()
	f := New(src, 0)
	fixed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return fixed }
	o := f.Fetch(context.Background(), "b")
	if o.Kind != KindSuccess {
		t.Fatalf("expected success, got %s", o.Kind)
	}
	s := o.Snapshot
	if s.Followers != 20 || s.Following != 2 || s.PostsCount != 4 || !s.CapturedAt.Equal(fixed) {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestFetchManySpacing(t *testing.T) {
	src := newFakeSource()
	src.profiles["c"] = igclient.ProfileStats{Username: "c"}
	delay := 30 * time.Millisecond
	f := New(src, delay)
	start := time.Now()
	if _, err := f.FetchMany(context.Background(), []string{"a", "b", "c"}); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 2*delay {
		t.Fatalf("expected at least %v between three fetches, elapsed %v", 2*delay, elapsed)
	}
}

func TestFetchManyCancellationAbortsRemaining(t *testing.T) {
	src := newFakeSource()
	f := New(src, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	outcomes, err := f.FetchMany(ctx, []string{"a", "b", "a", "b"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(outcomes) >= 4 {
		t.Fatalf("expected an aborted run, got %d outcomes", len(outcomes))
	}
}

func TestOnOutcomeHookOrder(t *testing.T) {
	src := newFakeSource()
	f := New(src, 0)
	var seen []string
	f.OnOutcome = func(o Outcome) { seen = append(seen, o.Username+":"+o.Kind.String()) }
	if _, err := f.FetchMany(context.Background(), []string{"a", "missing", "b"}); err != nil {
		t.Fatal(err)
	}
	want := []string{"a:success", "missing:not_found", "b:success"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}
