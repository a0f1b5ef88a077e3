package recall

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/store"
)

func TestTrendingScore(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item *core.ContentItem
		want float64
		tol  float64
	}{
		{
			name: "velocity with engagement and decay",
			// 2h old, 1000 views, 50 likes:
			// velocity=500, engagement=0.05, decay=exp(-2/168) -> ~518.79
			item: &core.ContentItem{
				ViewCount:   1000,
				LikeCount:   50,
				PublishedAt: now.Add(-2 * time.Hour),
			},
			want: 500 * 1.05 * math.Exp(-2.0/168.0),
			tol:  1e-9,
		},
		{
			name: "zero views means zero score",
			item: &core.ContentItem{PublishedAt: now.Add(-2 * time.Hour)},
			want: 0,
		},
		{
			name: "published right now clamps to one minute",
			item: &core.ContentItem{ViewCount: 60, PublishedAt: now},
			// velocity = 60 / (1/60) = 3600
			want: 3600 * math.Exp(-(1.0/60.0)/168.0),
			tol:  1e-9,
		},
		{
			name: "comments and shares weigh heavier than likes",
			// engagement = (10 + 2*10 + 3*10) / 100 = 0.6
			item: &core.ContentItem{
				ViewCount:    100,
				LikeCount:    10,
				CommentCount: 10,
				ShareCount:   10,
				PublishedAt:  now.Add(-1 * time.Hour),
			},
			want: 100 * 1.6 * math.Exp(-1.0/168.0),
			tol:  1e-9,
		},
		{
			name: "nil item",
			item: nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrendingScore(tt.item, now)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("TrendingScore() = %v, want %v", got, tt.want)
			}
		})
	}

	// sanity check against the hand-computed reference value
	ref := TrendingScore(&core.ContentItem{ViewCount: 1000, LikeCount: 50, PublishedAt: now.Add(-2 * time.Hour)}, now)
	if math.Abs(ref-518.79) > 0.01 {
		t.Errorf("reference scenario = %v, want ~518.79", ref)
	}
}

func TestTrendingScoreDecaysOverTime(t *testing.T) {
	now := time.Now()
	fresh := &core.ContentItem{ViewCount: 1000, PublishedAt: now.Add(-2 * time.Hour)}
	stale := &core.ContentItem{ViewCount: 1000, PublishedAt: now.Add(-200 * time.Hour)}

	if TrendingScore(fresh, now) <= TrendingScore(stale, now) {
		t.Error("older content with identical counters must score lower")
	}
}

func trendingFixture(now time.Time) (*store.MemoryContentStore, *core.ContentItem) {
	cs := store.NewMemoryContentStore()
	hot := &core.ContentItem{
		ID: "hot", ViewCount: 100000, LikeCount: 5000,
		PublishedAt: now.Add(-6 * time.Hour), IsPublic: true, Status: core.StatusPublished,
	}
	cs.Put(
		hot,
		&core.ContentItem{
			ID: "warm", ViewCount: 20000,
			PublishedAt: now.Add(-12 * time.Hour), IsPublic: true, Status: core.StatusPublished,
		},
		&core.ContentItem{
			ID: "old", ViewCount: 500000,
			PublishedAt: now.Add(-400 * time.Hour), IsPublic: true, Status: core.StatusPublished,
		},
		&core.ContentItem{
			ID: "private", ViewCount: 900000,
			PublishedAt: now.Add(-1 * time.Hour), IsPublic: false, Status: core.StatusPublished,
		},
	)
	return cs, hot
}

func TestTrendingRecalculateAndRecall(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cs, _ := trendingFixture(now)
	cache := store.NewMemoryStore()

	src := &TrendingSource{
		Content: cs,
		Cache:   cache,
		Now:     func() time.Time { return now },
	}

	if err := src.Recalculate(ctx, PeriodWeek); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	cands, err := src.Recall(ctx, &core.RecommendContext{SessionID: "s"}, 10)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}

	// "old" is outside the week lookback, "private" is not visible
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if cands[0].ContentID != "hot" || cands[1].ContentID != "warm" {
		t.Errorf("order = [%s %s], want [hot warm]", cands[0].ContentID, cands[1].ContentID)
	}
	if cands[0].Item == nil {
		t.Error("candidate should carry content metadata")
	}
	if lbl, ok := cands[0].Labels["period"]; !ok || lbl.Value != string(PeriodWeek) {
		t.Errorf("period label = %+v", cands[0].Labels["period"])
	}
	if cands[0].Score <= cands[1].Score {
		t.Errorf("scores not descending: %v vs %v", cands[0].Score, cands[1].Score)
	}
}

func TestTrendingRecalculateOverwrites(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cs, hot := trendingFixture(now)
	cache := store.NewMemoryStore()

	src := &TrendingSource{Content: cs, Cache: cache, Now: func() time.Time { return now }}

	if err := src.Recalculate(ctx, PeriodWeek); err != nil {
		t.Fatalf("first Recalculate: %v", err)
	}

	// content got taken down between refreshes
	hot.Status = core.StatusRemoved
	if err := src.Recalculate(ctx, PeriodWeek); err != nil {
		t.Fatalf("second Recalculate: %v", err)
	}

	cands, err := src.Recall(ctx, &core.RecommendContext{SessionID: "s"}, 10)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	for _, c := range cands {
		if c.ContentID == "hot" {
			t.Error("removed content survived the snapshot overwrite")
		}
	}
}

func TestTrendingRecallWithoutSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cs, _ := trendingFixture(now)

	// no cache at all: compute on the fly
	src := &TrendingSource{Content: cs, Now: func() time.Time { return now }}

	cands, err := src.Recall(ctx, &core.RecommendContext{SessionID: "s"}, 1)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(cands) != 1 || cands[0].ContentID != "hot" {
		t.Errorf("fallback compute = %v", core.CandidateIDs(cands))
	}
}

func TestTrendingStaleSnapshotSkipsHiddenContent(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cs, hot := trendingFixture(now)
	cache := store.NewMemoryStore()

	src := &TrendingSource{Content: cs, Cache: cache, Now: func() time.Time { return now }}
	if err := src.Recalculate(ctx, PeriodWeek); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	// takedown after the snapshot was written: read side must filter
	hot.IsPublic = false

	cands, err := src.Recall(ctx, &core.RecommendContext{SessionID: "s"}, 10)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	for _, c := range cands {
		if c.ContentID == "hot" {
			t.Error("hidden content leaked through a stale snapshot")
		}
	}
}

func TestPeriodLookback(t *testing.T) {
	tests := []struct {
		period Period
		want   time.Duration
	}{
		{PeriodToday, 24 * time.Hour},
		{PeriodWeek, 168 * time.Hour},
		{PeriodMonth, 720 * time.Hour},
		{Period("bogus"), 168 * time.Hour},
	}
	for _, tt := range tests {
		if got := tt.period.Lookback(); got != tt.want {
			t.Errorf("Lookback(%s) = %v, want %v", tt.period, got, tt.want)
		}
	}
}
