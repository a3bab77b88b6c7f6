package analysis

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"mailsweep/internal/catalog"
	"mailsweep/internal/model"
	"mailsweep/internal/query"
)

type scriptedEstimator struct {
	counts map[string]int64
	fail   map[string]bool
	calls  []string
	onCall func(n int)
}

func (s *scriptedEstimator) Estimate(ctx context.Context, q string) model.Estimate {
	s.calls = append(s.calls, q)
	if s.onCall != nil {
		s.onCall(len(s.calls))
	}
	if s.fail[q] {
		return model.Estimate{Status: model.StatusFailed, Reason: "unreachable"}
	}
	return model.Estimate{Count: s.counts[q], Status: model.StatusOK}
}

type panicEstimator struct{}

func (panicEstimator) Estimate(context.Context, string) model.Estimate { panic("boom") }

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func compose(t *testing.T, days int, ids ...string) []model.ComposedQuery {
	t.Helper()
	return query.Compose(catalog.Default(), model.NewSelection(ids, days))
}

func TestRun_BizreachScenario(t *testing.T) {
	qs := compose(t, 30, "bizreach")
	est := &scriptedEstimator{counts: map[string]int64{qs[0].FullQuery: 42}}
	snap, err := New(est, WithClock(func() time.Time { return fixedNow })).Run(context.Background(), qs, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.Failed() {
		t.Fatalf("unexpected failure %q", snap.Error)
	}
	if snap.TotalEstimated != 42 {
		t.Fatalf("total=%d", snap.TotalEstimated)
	}
	if math.Abs(snap.SpaceReclaimedMB-0.615234375) > 1e-12 {
		t.Fatalf("space=%v", snap.SpaceReclaimedMB)
	}
	if snap.CategoriesAnalyzed != 1 || !snap.CompletedAt.Equal(fixedNow) {
		t.Fatalf("snapshot %+v", snap)
	}
	if snap.Results[0].Query != "from:noreply@bizreach.co.jp OR from:scout@bizreach.co.jp older_than:30d" {
		t.Fatalf("query %q", snap.Results[0].Query)
	}
}

func TestRun_SequentialInOrderAndSum(t *testing.T) {
	qs := compose(t, 7, "noreply", "social", "promotions", "updates")
	counts := map[string]int64{}
	var want int64
	for i, q := range qs {
		counts[q.FullQuery] = int64(10 * (i + 1))
		want += int64(10 * (i + 1))
	}
	est := &scriptedEstimator{counts: counts}

	var seen []int
	snap, err := New(est).Run(context.Background(), qs, func(p Progress) {
		seen = append(seen, p.Done)
		if p.Total != len(qs) {
			t.Errorf("progress total %d", p.Total)
		}
		if p.Result.Query != qs[p.Done-1].FullQuery {
			t.Errorf("progress %d reported %q", p.Done, p.Result.Query)
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(est.calls) != len(qs) {
		t.Fatalf("calls=%d want %d", len(est.calls), len(qs))
	}
	for i, q := range qs {
		if est.calls[i] != q.FullQuery {
			t.Fatalf("call %d = %q want %q", i, est.calls[i], q.FullQuery)
		}
		if snap.Results[i].CategoryName != q.CategoryName {
			t.Fatalf("result %d = %q", i, snap.Results[i].CategoryName)
		}
	}
	if snap.TotalEstimated != want {
		t.Fatalf("total=%d want %d", snap.TotalEstimated, want)
	}
	for i, d := range seen {
		if d != i+1 {
			t.Fatalf("progress order %v", seen)
		}
	}
}

func TestRun_OneFailureStillCompletes(t *testing.T) {
	qs := compose(t, 30, "promotions", "social")
	est := &scriptedEstimator{
		counts: map[string]int64{qs[0].FullQuery: 120, qs[1].FullQuery: 999},
		fail:   map[string]bool{qs[1].FullQuery: true},
	}
	snap, err := New(est).Run(context.Background(), qs, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.Failed() {
		t.Fatal("run marked failed on a single query failure")
	}
	if snap.TotalEstimated != 120 || snap.CategoriesAnalyzed != 2 {
		t.Fatalf("total=%d analyzed=%d", snap.TotalEstimated, snap.CategoriesAnalyzed)
	}
	if snap.Results[1].Status != model.StatusFailed || snap.Results[1].Estimated != 0 {
		t.Fatalf("second result %+v", snap.Results[1])
	}
	if snap.FailedQueries() != 1 {
		t.Fatalf("failed=%d", snap.FailedQueries())
	}
}

func TestRun_Empty(t *testing.T) {
	est := &scriptedEstimator{}
	_, err := New(est).Run(context.Background(), nil, nil)
	if !errors.Is(err, ErrNothingToAnalyze) {
		t.Fatalf("err=%v", err)
	}
	if len(est.calls) != 0 {
		t.Fatal("estimator called for empty run")
	}
}

func TestRun_RunLevelFailures(t *testing.T) {
	qs := compose(t, 30, "social", "updates")

	ctx, cancel := context.WithCancel(context.Background())
	est := &scriptedEstimator{onCall: func(n int) {
		if n == 1 {
			cancel()
		}
	}}
	cases := map[string]struct {
		agg *Aggregator
		ctx context.Context
	}{
		"nil estimator": {New(nil), context.Background()},
		"cancelled":     {New(est), ctx},
		"panic":         {New(panicEstimator{}), context.Background()},
	}
	for name, tc := range cases {
		snap, err := tc.agg.Run(tc.ctx, qs, nil)
		if err != nil {
			t.Fatalf("%s: err=%v", name, err)
		}
		if snap.Error != FailureMessage {
			t.Fatalf("%s: error=%q", name, snap.Error)
		}
		if snap.TotalEstimated != 0 || snap.CategoriesAnalyzed != 0 || len(snap.Results) != 0 || snap.SpaceReclaimedMB != 0 {
			t.Fatalf("%s: failed snapshot carries data: %+v", name, snap)
		}
	}
	if len(est.calls) != 1 {
		t.Fatalf("cancelled run kept going: %d calls", len(est.calls))
	}
}

func TestSpaceMB(t *testing.T) {
	tests := []struct {
		total int64
		mb    float64
		label string
	}{
		{0, 0, "0.0"},
		{42, 0.615234375, "0.6"},
		{1000, 14.6484375, "14.6"},
		{1024, 15, "15.0"},
	}
	for _, tc := range tests {
		got := model.SpaceMB(tc.total)
		if got != tc.mb {
			t.Errorf("SpaceMB(%d)=%v want %v", tc.total, got, tc.mb)
		}
		if l := model.FormatMB(got); l != tc.label {
			t.Errorf("FormatMB(%v)=%q want %q", got, l, tc.label)
		}
	}
}
