package rerank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/feedkit/core"
)

func cand(id string, score float64, item *core.ContentItem) *core.Candidate {
	c := core.NewCandidate(id, score, "recall.trending")
	c.Item = item
	return c
}

func TestContextMultiplier(t *testing.T) {
	shortVideo := &core.ContentItem{ID: "c_1", CreatorID: "cr_1", CategoryIDs: []string{"tech"}, DurationSec: 300}
	longVideo := &core.ContentItem{ID: "c_2", CreatorID: "cr_2", CategoryIDs: []string{"music"}, DurationSec: 1800}
	mobileShort := &core.ContentItem{ID: "c_3", CreatorID: "cr_3", CategoryIDs: []string{"tech"}, DurationSec: 300, MobileOptimized: true}

	tests := []struct {
		name string
		c    *core.Candidate
		uctx *core.UserContext
		want float64
	}{
		{
			name: "morning short boost",
			c:    cand("c_1", 1, shortVideo),
			uctx: &core.UserContext{TimeOfDay: core.Morning},
			want: 1.2,
		},
		{
			name: "morning long content unchanged",
			c:    cand("c_2", 1, longVideo),
			uctx: &core.UserContext{TimeOfDay: core.Morning},
			want: 1,
		},
		{
			name: "evening short content unchanged",
			c:    cand("c_1", 1, shortVideo),
			uctx: &core.UserContext{TimeOfDay: core.Evening},
			want: 1,
		},
		{
			name: "mobile optimized boost",
			c:    cand("c_3", 1, mobileShort),
			uctx: &core.UserContext{TimeOfDay: core.Evening, Device: core.DeviceMobile},
			want: 1.15,
		},
		{
			name: "desktop ignores mobile flag",
			c:    cand("c_3", 1, mobileShort),
			uctx: &core.UserContext{TimeOfDay: core.Evening, Device: core.DeviceDesktop},
			want: 1,
		},
		{
			name: "category affinity",
			c:    cand("c_1", 1, shortVideo),
			uctx: &core.UserContext{TimeOfDay: core.Evening, RecentCategoryIDs: []string{"music", "tech"}},
			want: 1.1,
		},
		{
			name: "creator fatigue over threshold",
			c:    cand("c_1", 1, shortVideo),
			uctx: &core.UserContext{TimeOfDay: core.Evening, RecentCreatorIDs: []string{"cr_1", "cr_1", "cr_1"}},
			want: 0.7,
		},
		{
			name: "creator at threshold is not fatigued",
			c:    cand("c_1", 1, shortVideo),
			uctx: &core.UserContext{TimeOfDay: core.Evening, RecentCreatorIDs: []string{"cr_1", "cr_1"}},
			want: 1,
		},
		{
			name: "all boosts compound",
			c:    cand("c_3", 1, mobileShort),
			uctx: &core.UserContext{
				TimeOfDay:         core.Morning,
				Device:            core.DeviceMobile,
				RecentCategoryIDs: []string{"tech"},
			},
			want: 1.2 * 1.15 * 1.1,
		},
		{
			name: "boost and penalty compound",
			c:    cand("c_1", 1, shortVideo),
			uctx: &core.UserContext{
				TimeOfDay:        core.Morning,
				RecentCreatorIDs: []string{"cr_1", "cr_1", "cr_1"},
			},
			want: 1.2 * 0.7,
		},
		{
			name: "missing item metadata keeps score",
			c:    cand("c_9", 1, nil),
			uctx: &core.UserContext{TimeOfDay: core.Morning, Device: core.DeviceMobile},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contextMultiplier(tt.c, tt.uctx)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("contextMultiplier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRerank(t *testing.T) {
	uctx := &core.UserContext{
		TimeOfDay: core.Morning,
		Device:    core.DeviceMobile,
	}
	// c_low starts behind but earns 1.2*1.15 = 1.38 and overtakes plain c_high
	in := []*core.Candidate{
		cand("c_high", 120, &core.ContentItem{ID: "c_high", DurationSec: 1800}),
		cand("c_low", 100, &core.ContentItem{ID: "c_low", DurationSec: 300, MobileOptimized: true}),
	}

	out := Rerank(in, uctx)
	if got := core.CandidateIDs(out); len(got) != 2 || got[0] != "c_low" || got[1] != "c_high" {
		t.Fatalf("Rerank order = %v, want [c_low c_high]", got)
	}
	if math.Abs(out[0].Score-138) > 1e-9 {
		t.Errorf("adjusted score = %v, want 138", out[0].Score)
	}
	if lbl, ok := out[0].Labels["context_multiplier"]; !ok || lbl.Value != "1.380" {
		t.Errorf("context_multiplier label = %+v, want 1.380", lbl)
	}
	if _, ok := out[1].Labels["context_multiplier"]; ok {
		t.Error("unadjusted candidate must not carry a context_multiplier label")
	}

	// input must stay untouched
	if in[0].Score != 120 || in[1].Score != 100 {
		t.Errorf("input mutated: scores %v, %v", in[0].Score, in[1].Score)
	}
}

func TestRerankStableOnTies(t *testing.T) {
	uctx := &core.UserContext{TimeOfDay: core.Evening}
	in := []*core.Candidate{
		cand("first", 10, nil),
		cand("second", 10, nil),
		cand("third", 10, nil),
	}
	out := Rerank(in, uctx)
	if got := core.CandidateIDs(out); got[0] != "first" || got[1] != "second" || got[2] != "third" {
		t.Errorf("tied candidates reordered: %v", got)
	}
}

func TestRerankNilContextCopiesThrough(t *testing.T) {
	in := []*core.Candidate{cand("a", 2, nil), cand("b", 1, nil)}
	out := Rerank(in, nil)
	if got := core.CandidateIDs(out); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Rerank(nil ctx) = %v, want [a b]", got)
	}
	// defensive copy: caller may mutate the result freely
	out[0] = nil
	if in[0] == nil {
		t.Error("result shares backing array with input")
	}
}

func TestContextualNodePassthrough(t *testing.T) {
	n := &ContextualNode{}
	in := []*core.Candidate{cand("a", 1, nil)}

	out, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u"}, in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Error("missing user context must pass candidates through unchanged")
	}
}
