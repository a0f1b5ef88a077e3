package config

import (
	"context"
	"fmt"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/filter"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/conv"
	"github.com/rushteam/feedkit/recall"
	"github.com/rushteam/feedkit/rerank"
	"github.com/rushteam/feedkit/session"
)

// 内置 Node 注册。参数块的键与 EngineConfig 对应小节保持一致，
// 同一份 YAML 片段在两种装配方式下可以原样复用。
func init() {
	Register("recall.blend", buildBlendNode)
	Register("filter", buildFilterNode)
	Register("rerank.rule", buildRuleNode)
	Register("rerank.context", buildContextNode)
	Register("rerank.explore", buildExploreNode)
	Register("rerank.topn", buildTopNNode)
}

func section(params map[string]any, key string) map[string]any {
	if m, ok := params[key].(map[string]any); ok {
		return m
	}
	return nil
}

func buildBlendNode(params map[string]any, deps Deps) (pipeline.Node, error) {
	ec := EngineConfig{
		StrategyTimeout: conv.ConfigGetInt64(params, "strategy_timeout", 0),
		OverFetch:       conv.ConfigGetInt64(params, "over_fetch", 0),
		Weights:         section(params, "weights"),
		Collaborative:   section(params, "collaborative"),
		Content:         section(params, "content"),
		Trending:        section(params, "trending"),
		Diversity:       section(params, "diversity"),
	}
	sessions := newSessions(section(params, "session"), deps.Cache)
	return newBlender(ec, deps, sessions, newTrending(ec.Trending, deps)), nil
}

// backstopFilterNode 每次 Process 新建过滤器：SeenFilter 的已看集合
// 在单次请求内快照，不能跨请求复用。
type backstopFilterNode struct {
	signals  core.SignalStore
	sessions *session.Cache
}

func (n *backstopFilterNode) Name() string        { return "filter" }
func (n *backstopFilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *backstopFilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	fn := &filter.FilterNode{Filters: []filter.Filter{
		filter.NewSeenFilter(n.signals, n.sessions),
		&filter.VisibilityFilter{},
	}}
	return fn.Process(ctx, rctx, cands)
}

func buildFilterNode(params map[string]any, deps Deps) (pipeline.Node, error) {
	return &backstopFilterNode{
		signals:  deps.Signals,
		sessions: newSessions(section(params, "session"), deps.Cache),
	}, nil
}

func buildRuleNode(params map[string]any, _ Deps) (pipeline.Node, error) {
	rules, err := decodeRules(params["rules"])
	if err != nil {
		return nil, err
	}
	return rerank.NewRuleNode(rules)
}

func decodeRules(v any) ([]rerank.Rule, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("rules must be a list")
	}
	rules := make([]rerank.Rule, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("rule %d must be a map", i)
		}
		multiply, ok := conv.ToFloat64(m["multiply"])
		if !ok {
			return nil, fmt.Errorf("rule %d: multiply is required", i)
		}
		rules = append(rules, rerank.Rule{
			When:     conv.ConfigGet[string](m, "when", ""),
			Multiply: multiply,
		})
	}
	return rules, nil
}

func buildContextNode(_ map[string]any, _ Deps) (pipeline.Node, error) {
	return &rerank.ContextualNode{}, nil
}

// exploreNode 把探索交织包装成 Node：个性化列表取链路上游的输出，
// 探索列表取热度召回，失败时退回上游结果。
type exploreNode struct {
	explore     *rerank.ExploreExploit
	exploration recall.Source
}

func (n *exploreNode) Name() string        { return "rerank.explore" }
func (n *exploreNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *exploreNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	if rctx == nil || rctx.Limit <= 0 {
		return cands, nil
	}
	exploration, err := n.exploration.Recall(ctx, rctx, rctx.Limit)
	if err != nil || len(exploration) == 0 {
		return cands, nil
	}
	return n.explore.Interleave(cands, exploration, rctx.Limit), nil
}

func buildExploreNode(params map[string]any, deps Deps) (pipeline.Node, error) {
	explore := &rerank.ExploreExploit{}
	if ratio, ok := conv.ToFloat64(params["exploit_ratio"]); ok {
		explore.ExploitRatio = ratio
	}
	return &exploreNode{
		explore:     explore,
		exploration: newTrending(section(params, "trending"), deps),
	}, nil
}

func buildTopNNode(params map[string]any, _ Deps) (pipeline.Node, error) {
	return &rerank.TopN{N: int(conv.ConfigGetInt64(params, "n", 0))}, nil
}
