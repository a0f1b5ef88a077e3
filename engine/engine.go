// Package engine 是 feedkit 的入口门面：对外只暴露平台需要的五个操作——
// 推荐、浏览/点赞追踪、热度重算、情境重排。内部把冷启动分流、策略混合、
// 重排编排串起来，并执行“degrade, don't fail”的错误策略。
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/filter"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/recall"
	"github.com/rushteam/feedkit/rerank"
	"github.com/rushteam/feedkit/session"
)

// ContextProvider 按身份推导情境信息（如 feast 特征服务）。
// 调用方显式传了 Context 时不会被调用。
type ContextProvider interface {
	UserContext(ctx context.Context, identityRef string) (*core.UserContext, error)
}

// Request 是一次推荐请求。UserID 与 SessionID 二选一。
type Request struct {
	UserID    string
	SessionID string

	// Limit 目标条数，必须为正
	Limit int

	// Context 可选情境；为 nil 且配置了 ContextProvider 时按身份推导
	Context *core.UserContext

	// OnboardingCategories 注册类目偏好，仅冷启动路径使用
	OnboardingCategories []string

	// Params 请求级扩展参数，供规则重排读取
	Params map[string]any
}

// Engine 组合各组件形成完整推荐链路。字段可按需替换，零值即关闭对应能力
// （Explore 为 nil 则不做探索交织，Rules 为 nil 则没有规则重排）。
type Engine struct {
	Signals  core.SignalStore
	Content  core.ContentStore
	Sessions *session.Cache
	Tracker  *session.Tracker

	Blender   *recall.Blender
	ColdStart *recall.ColdStartSource
	Trending  *recall.TrendingSource

	Explore *rerank.ExploreExploit
	Rules   *rerank.RuleNode

	Contexts ContextProvider

	Logger *zap.Logger
}

// New 按缺省参数组装引擎：四路策略（协同/内容/热度/多样性）+ 冷启动 +
// 会话追踪。cache 同时承载会话行为与热度快照。
func New(content core.ContentStore, signals core.SignalStore, cache core.Store) *Engine {
	sessions := session.NewCache(cache)
	trending := &recall.TrendingSource{Content: content, Cache: cache}

	return &Engine{
		Signals:  signals,
		Content:  content,
		Sessions: sessions,
		Tracker:  session.NewTracker(sessions),
		Blender: &recall.Blender{
			Sources: []recall.Source{
				&recall.CollaborativeSource{Signals: signals, Content: content, Sessions: sessions},
				&recall.ContentBasedSource{Signals: signals, Content: content, Sessions: sessions},
				trending,
				&recall.DiversitySource{Signals: signals, Content: content, Sessions: sessions},
			},
		},
		ColdStart: &recall.ColdStartSource{Content: content},
		Trending:  trending,
	}
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}

// Recommend 是主入口：校验入参，按信号有无分流冷启动或混合链路，
// 可选地做情境/规则重排与探索交织。
//
// 错误策略：入参非法立刻返回校验错误（任何 I/O 之前）；上游数据错误一律
// 降级——哪怕四路全挂，调用方拿到的也是空列表而不是错误。
func (e *Engine) Recommend(ctx context.Context, req Request) ([]*core.Candidate, error) {
	if req.Limit <= 0 {
		return nil, core.ErrInvalidLimit
	}
	if req.UserID == "" && req.SessionID == "" {
		return nil, core.ErrInvalidIdentity
	}

	rctx := &core.RecommendContext{
		UserID:               req.UserID,
		SessionID:            req.SessionID,
		Limit:                req.Limit,
		Context:              req.Context,
		OnboardingCategories: req.OnboardingCategories,
		Params:               req.Params,
	}

	// 零信号身份走冷启动，绕过 Blender
	if e.isColdStart(ctx, rctx) {
		return e.recommendColdStart(ctx, rctx)
	}

	cands, err := e.Blender.Blend(ctx, rctx, req.Limit)
	if err != nil {
		// Blender 自身的失败也只降级
		e.logger().Warn("recommend: blend failed", zap.Error(err))
		return []*core.Candidate{}, nil
	}

	cands = e.postProcess(ctx, rctx, cands)
	return cands, nil
}

// RecommendIDs 是 Recommend 的便捷形态，只返回内容 ID 列表。
func (e *Engine) RecommendIDs(ctx context.Context, req Request) ([]string, error) {
	cands, err := e.Recommend(ctx, req)
	if err != nil {
		return nil, err
	}
	return core.CandidateIDs(cands), nil
}

func (e *Engine) recommendColdStart(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error) {
	if e.ColdStart == nil {
		return []*core.Candidate{}, nil
	}
	cands, err := e.ColdStart.Recall(ctx, rctx, rctx.Limit)
	if err != nil {
		e.logger().Warn("recommend: cold start degraded", zap.Error(err))
		return []*core.Candidate{}, nil
	}
	if len(cands) > rctx.Limit {
		cands = cands[:rctx.Limit]
	}
	return cands, nil
}

// isColdStart 判定身份是否没有任何信号。
// 判定本身的取数失败按“有信号”处理，让混合链路去降级。
func (e *Engine) isColdStart(ctx context.Context, rctx *core.RecommendContext) bool {
	if rctx.IsAnonymous() {
		if e.Sessions == nil {
			return true
		}
		b, ok, err := e.Sessions.Get(ctx, rctx.SessionID)
		if err != nil {
			e.logger().Warn("recommend: session lookup failed", zap.Error(err))
			return false
		}
		return !ok || !b.HasSignals()
	}

	if e.Signals == nil {
		return true
	}
	signals, err := e.Signals.ListSignals(ctx, rctx.UserID, 1)
	if err != nil {
		e.logger().Warn("recommend: signal lookup failed", zap.Error(err))
		return false
	}
	return len(signals) == 0
}

// postProcess 对混合结果做重排编排：规则调权 → 情境调权 → 截断，
// 最后可选地与热度列表做探索交织。任何一步失败都退回上一步的结果。
func (e *Engine) postProcess(ctx context.Context, rctx *core.RecommendContext, cands []*core.Candidate) []*core.Candidate {
	if rctx.Context == nil && e.Contexts != nil {
		uctx, err := e.Contexts.UserContext(ctx, rctx.IdentityRef())
		if err != nil {
			e.logger().Warn("recommend: context provider degraded", zap.Error(err))
		} else {
			rctx.Context = uctx
		}
	}

	nodes := make([]pipeline.Node, 0, 4)
	// 兜底过滤：策略间时间差或快照滞后可能放出已看/已下架内容
	nodes = append(nodes, &filter.FilterNode{
		Filters: []filter.Filter{
			filter.NewSeenFilter(e.Signals, e.Sessions),
			&filter.VisibilityFilter{},
		},
	})
	if e.Rules != nil {
		nodes = append(nodes, e.Rules)
	}
	if rctx.Context != nil {
		nodes = append(nodes, &rerank.ContextualNode{})
	}
	nodes = append(nodes, &rerank.TopN{N: rctx.Limit})

	p := &pipeline.Pipeline{Nodes: nodes}
	processed, err := p.Run(ctx, rctx, cands)
	if err != nil {
		e.logger().Warn("recommend: rerank degraded", zap.Error(err))
		processed = cands
	}

	if e.Explore != nil && e.Trending != nil {
		exploration, err := e.Trending.Recall(ctx, rctx, rctx.Limit)
		if err != nil {
			e.logger().Warn("recommend: exploration list degraded", zap.Error(err))
		} else if len(exploration) > 0 {
			processed = e.Explore.Interleave(processed, exploration, rctx.Limit)
		}
	}

	if len(processed) > rctx.Limit {
		processed = processed[:rctx.Limit]
	}
	return processed
}

// TrackContentView 记录匿名会话的一次浏览。best-effort、非阻塞：
// 只更新会话行为缓存，已登录用户的浏览由信号库（外部协作方）记录。
func (e *Engine) TrackContentView(ctx context.Context, sessionID, contentID string, categoryIDs, tagIDs []string, creatorID string) {
	if e.Tracker == nil {
		return
	}
	e.Tracker.TrackView(ctx, sessionID, contentID, categoryIDs, tagIDs, creatorID)
}

// TrackContentLike 记录匿名会话的一次点赞。契约同 TrackContentView。
func (e *Engine) TrackContentLike(ctx context.Context, sessionID, contentID string) {
	if e.Tracker == nil {
		return
	}
	e.Tracker.TrackLike(ctx, sessionID, contentID)
}

// RecalculateTrending 重算热度快照。幂等覆盖，可由计划任务反复触发。
func (e *Engine) RecalculateTrending(ctx context.Context, period recall.Period) error {
	if e.Trending == nil {
		return nil
	}
	return e.Trending.Recalculate(ctx, period)
}

// Rerank 是情境重排的直通形态：纯函数，无 I/O。
func (e *Engine) Rerank(cands []*core.Candidate, uctx *core.UserContext) []*core.Candidate {
	return rerank.Rerank(cands, uctx)
}
