package config

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/feedkit/engine"
	"github.com/rushteam/feedkit/store"
)

const fullYAML = `
engine:
  strategy_timeout: 2
  over_fetch: 3
  weights:
    collaborative: 0.4
    content: 0.3
    trending: 0.2
    diversity: 0.1
  collaborative:
    min_similarity: 0.2
    max_neighbors: 25
    weighted: true
  trending:
    period: week
    snapshot_size: 200
  coldstart:
    min_view_count: 5000
  session:
    ttl: 1800
    async_track: false
  explore:
    enabled: true
    exploit_ratio: 0.9
  rules:
    - when: 'candidate.source == "recall.trending"'
      multiply: 1.2
`

func testDeps() Deps {
	return Deps{
		Content: store.NewMemoryContentStore(),
		Signals: store.NewMemorySignalStore(),
		Cache:   store.NewMemoryStore(),
	}
}

func TestParseAndBuildFullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Engine.StrategyTimeout != 2 {
		t.Errorf("StrategyTimeout = %d, want 2", cfg.Engine.StrategyTimeout)
	}

	eng, err := cfg.Build(testDeps())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if eng.Blender.Timeout != 2*time.Second {
		t.Errorf("blender timeout = %v, want 2s", eng.Blender.Timeout)
	}
	if eng.Blender.OverFetch != 3 {
		t.Errorf("blender over fetch = %d, want 3", eng.Blender.OverFetch)
	}
	if w := eng.Blender.Weights; len(w) != 4 || w[0] != 0.4 || w[3] != 0.1 {
		t.Errorf("blend weights = %v, want [0.4 0.3 0.2 0.1]", w)
	}
	if len(eng.Blender.Sources) != 4 {
		t.Fatalf("got %d sources, want 4", len(eng.Blender.Sources))
	}

	if eng.Sessions.TTL != 30*time.Minute {
		t.Errorf("session TTL = %v, want 30m", eng.Sessions.TTL)
	}
	if eng.Tracker.Async {
		t.Error("async_track false must build a synchronous tracker")
	}

	if eng.ColdStart.MinViewCount != 5000 {
		t.Errorf("cold start floor = %d, want 5000", eng.ColdStart.MinViewCount)
	}

	if eng.Explore == nil {
		t.Fatal("explore enabled but not built")
	}
	if eng.Explore.ExploitRatio != 0.9 {
		t.Errorf("exploit ratio = %v, want 0.9", eng.Explore.ExploitRatio)
	}

	if eng.Rules == nil {
		t.Error("rule table configured but not compiled")
	}
}

func TestBuildEmptyConfigUsesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("engine: {}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	eng, err := cfg.Build(testDeps())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if eng.Blender == nil || len(eng.Blender.Sources) != 4 {
		t.Fatal("default build must wire all four strategies")
	}
	// unset weights fall back to the 40/30/20/10 split inside the blender
	if eng.Blender.Weights != nil {
		t.Errorf("weights = %v, want nil (blender default)", eng.Blender.Weights)
	}
	if eng.Explore != nil {
		t.Error("explore must stay off unless enabled")
	}
	if eng.Rules != nil {
		t.Error("no rules configured, none expected")
	}

	// and the engine must actually serve requests
	if _, err := eng.RecommendIDs(context.Background(), engine.Request{UserID: "u_1", Limit: 5}); err != nil {
		t.Errorf("built engine failed to serve: %v", err)
	}
}

func TestBuildPartialWeightsFallBack(t *testing.T) {
	cfg, err := Parse([]byte(`
engine:
  weights:
    collaborative: 0.7
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	eng, err := cfg.Build(testDeps())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// half-configured weights are worse than none: fall back entirely
	if eng.Blender.Weights != nil {
		t.Errorf("weights = %v, want full fallback", eng.Blender.Weights)
	}
}

func TestBuildRequiresStores(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.Build(Deps{Content: store.NewMemoryContentStore()}); err == nil {
		t.Error("missing signals/cache must fail the build")
	}
}

func TestBuildRejectsBadRule(t *testing.T) {
	cfg, err := Parse([]byte(`
engine:
  rules:
    - when: 'candidate.score >'
      multiply: 1.5
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := cfg.Build(testDeps()); err == nil {
		t.Error("invalid rule expression must fail the build")
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("engine: [not a map")); err == nil {
		t.Error("malformed yaml must fail")
	}
}
