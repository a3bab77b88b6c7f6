package actionlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"mailsweep/internal/model"
)

func snapshot() model.Snapshot {
	return model.Snapshot{
		Results: []model.QueryResult{
			{CategoryName: "Promotional Emails", Query: "category:promotions older_than:30d", Estimated: 120},
			{CategoryName: "Social Notifications", Query: "category:social older_than:30d", Estimated: 0},
			{CategoryName: "No-Reply Emails", Query: "from:noreply OR from:no-reply older_than:30d", Estimated: 8},
		},
		TotalEstimated:     128,
		CategoriesAnalyzed: 3,
	}
}

func TestBuild_OrderAndContent(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	seq, err := Build(context.Background(), snapshot(), WithInterval(0), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := Collect(context.Background(), seq)
	snap := snapshot()
	if len(got) != len(snap.Results) {
		t.Fatalf("len=%d", len(got))
	}
	for i, r := range snap.Results {
		if got[i].Category != r.CategoryName || got[i].Query != r.Query || got[i].Count != r.Estimated {
			t.Fatalf("record %d = %+v", i, got[i])
		}
		if !got[i].RecordedAt.Equal(now) {
			t.Fatalf("record %d time %v", i, got[i].RecordedAt)
		}
	}
	if _, ok := seq.Next(context.Background()); ok {
		t.Fatal("sequence yielded after exhaustion")
	}
}

func TestBuild_Paced(t *testing.T) {
	const interval = 30 * time.Millisecond
	seq, err := Build(context.Background(), snapshot(), WithInterval(interval))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	start := time.Now()
	if _, ok := seq.Next(context.Background()); !ok {
		t.Fatal("no first record")
	}
	if elapsed := time.Since(start); elapsed < interval/2 {
		t.Fatalf("first record not paced: %v", elapsed)
	}
	Collect(context.Background(), seq)
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Fatalf("three records in %v", elapsed)
	}
}

func TestBuild_Rejects(t *testing.T) {
	failed := model.Snapshot{Error: "Failed to analyze emails. Please check Gmail connection."}
	if _, err := Build(context.Background(), failed); !errors.Is(err, ErrFailedSnapshot) {
		t.Fatalf("failed snapshot: err=%v", err)
	}
	zero := snapshot()
	zero.TotalEstimated = 0
	if _, err := Build(context.Background(), zero); !errors.Is(err, ErrNothingFound) {
		t.Fatalf("zero snapshot: err=%v", err)
	}
}

func TestSequence_Stop(t *testing.T) {
	seq, err := Build(context.Background(), snapshot(), WithInterval(time.Hour))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	seq.Stop()
	select {
	case _, ok := <-seq.Records():
		if ok {
			t.Fatal("record emitted after Stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not close the sequence")
	}
}

func TestBuild_SnapshotNotShared(t *testing.T) {
	snap := snapshot()
	seq, err := Build(context.Background(), snap, WithInterval(0))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	snap.Results[0].Query = "mutated"
	got := Collect(context.Background(), seq)
	if got[0].Query == "mutated" {
		t.Fatal("sequence reads caller's slice")
	}
}
