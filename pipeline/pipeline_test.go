package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/feedkit/core"
)

type appendNode struct {
	name string
	err  error
}

func (n *appendNode) Name() string { return n.name }
func (n *appendNode) Kind() Kind   { return KindPostProcess }

func (n *appendNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(cands, core.NewCandidate(n.name, 1, "test")), nil
}

func TestPipelineRunChainsNodes(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&appendNode{name: "n1"},
		&appendNode{name: "n2"},
	}}

	out, err := p.Run(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := core.CandidateIDs(out); len(got) != 2 || got[0] != "n1" || got[1] != "n2" {
		t.Errorf("Run = %v, want [n1 n2]", got)
	}
}

func TestPipelineRunStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&appendNode{name: "n1"},
		&appendNode{name: "n2", err: boom},
		&appendNode{name: "n3"},
	}}

	out, err := p.Run(context.Background(), nil, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Run err = %v, want boom", err)
	}
	if out != nil {
		t.Errorf("failed run must not return candidates, got %v", core.CandidateIDs(out))
	}
}

func TestPipelineRunEmpty(t *testing.T) {
	p := &Pipeline{}
	out, err := p.Run(context.Background(), nil, []*core.Candidate{core.NewCandidate("a", 1, "test")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("empty pipeline must pass input through, got %d", len(out))
	}
}
