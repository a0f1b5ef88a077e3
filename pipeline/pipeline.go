package pipeline

import (
	"context"

	"github.com/rushteam/feedkit/core"
)

// Pipeline 是 feedkit 的编排抽象：把推荐逻辑拆成可组合的 Node 链
// （Blend → Filter → ReRank → PostProcess）。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	cur := cands
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
