package dsl

import (
	"testing"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/utils"
)

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty expression", ""},
		{"syntax error", "candidate.score >"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.expr); err == nil {
				t.Errorf("Compile(%q) expected error", tt.expr)
			}
		})
	}
}

func TestProgramEval(t *testing.T) {
	cand := core.NewCandidate("c_1", 120.0, "recall.trending")
	cand.Item = &core.ContentItem{
		ViewCount:       100000,
		LikeCount:       2000,
		DurationSec:     300,
		MobileOptimized: true,
	}
	cand.PutLabel("period", utils.Label{Value: "week", Source: "recall"})

	uctx := &core.UserContext{TimeOfDay: core.Morning, Device: core.DeviceMobile}
	params := map[string]any{"query": "golang"}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"score threshold", `candidate.score > 100.0`, true},
		{"score threshold miss", `candidate.score > 200.0`, false},
		{"source match", `candidate.source == "recall.trending"`, true},
		{"item field", `candidate.duration_sec < 600.0 && candidate.mobile_optimized`, true},
		{"label lookup", `label.period == "week"`, true},
		{"label from source tag", `label.source == "recall.trending"`, true},
		{"context time of day", `ctx.time_of_day == "morning"`, true},
		{"context device", `ctx.device == "desktop"`, false},
		{"request param", `ctx.query == "golang"`, true},
		{"compound", `ctx.device == "mobile" && candidate.view_count > 50000.0`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.expr, err)
			}
			got, err := prog.Eval(cand, uctx, params)
			if err != nil {
				t.Fatalf("Eval(%q): %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestProgramEvalNonBoolean(t *testing.T) {
	prog, err := Compile(`candidate.score + 1.0`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := prog.Eval(core.NewCandidate("c_1", 1, "s"), nil, nil); err == nil {
		t.Error("Eval of non-boolean expression expected error")
	}
}

func TestProgramEvalMissingContext(t *testing.T) {
	// candidate without item, no user context: expressions over known fields still work
	prog, err := Compile(`candidate.source == "recall.coldstart"`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	got, err := prog.Eval(core.NewCandidate("c_1", 1, "recall.coldstart"), nil, nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !got {
		t.Error("Eval = false, want true")
	}
}
