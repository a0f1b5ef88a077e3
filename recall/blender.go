package recall

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// Blender 并发执行多路召回策略，并按固定配额比例合并结果。
//
// 并发模型：四路策略只读、无副作用、互不依赖，必须并发发出；
// 每路各自带超时，超时或失败即降级为空贡献，绝不拖垮整个请求
// （degrade, never fail——推荐是增强路径，半份结果永远好过一个错误）。
//
// 配额合并：Weights 与 Sources 一一对应（默认 40/30/20/10），
// 每路配额 = ceil(limit * weight)，向上游多要 OverFetch 倍补偿去重损耗。
// 合并按策略优先级顺序（即 Sources 顺序）进行：内容 ID 首见者胜，
// 且每一档受累计配额上限约束（40% → 70% → 90% → 100%）。
// 上限是累计而非每档固定：前一路没填满的额度自动让给后一路。
// 多路同时欠填时的补位次序即严格的 Sources 顺序，确定且可测。
type Blender struct {
	Sources []Source

	// Weights 各路配额权重，与 Sources 对齐；缺省用 DefaultBlendWeights
	Weights []float64

	// Timeout 单路策略超时，默认 300ms
	Timeout time.Duration

	// OverFetch 向上游多要的倍数，默认 2
	OverFetch int

	// Logger 可注入，默认 Nop；策略失败在这里记 Warn 后吞掉
	Logger *zap.Logger
}

func (b *Blender) Name() string        { return "recall.blend" }
func (b *Blender) Kind() pipeline.Kind { return pipeline.KindBlend }

// Process 实现 Node 接口，目标条数取 rctx.Limit。
func (b *Blender) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	limit := 0
	if rctx != nil {
		limit = rctx.Limit
	}
	return b.Blend(ctx, rctx, limit)
}

// Blend 并发召回并按配额合并，结果长度 <= limit 且内容 ID 不重复。
func (b *Blender) Blend(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Candidate, error) {
	if len(b.Sources) == 0 || limit <= 0 {
		return nil, nil
	}

	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = core.DefaultStrategyTimeout
	}
	overFetch := b.OverFetch
	if overFetch <= 0 {
		overFetch = 2
	}

	weights := b.Weights
	if len(weights) != len(b.Sources) {
		weights = defaultWeightsFor(len(b.Sources))
	}

	// 按下标收集结果，合并顺序与 Sources 顺序严格一致
	results := make([][]*core.Candidate, len(b.Sources))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, src := range b.Sources {
		i, src := i, src
		quota := int(math.Ceil(float64(limit) * weights[i]))

		eg.Go(func() error {
			recallCtx, cancel := context.WithTimeout(egCtx, timeout)
			defer cancel()

			cands, err := src.Recall(recallCtx, rctx, quota*overFetch)
			if err != nil {
				// 单路失败降级为空贡献，不中断其他策略
				logger.Warn("blend: strategy degraded",
					zap.String("source", src.Name()), zap.Error(err))
				return nil
			}
			results[i] = cands
			return nil
		})
	}
	// 各 goroutine 永远返回 nil，Wait 只用于 join
	_ = eg.Wait()

	return b.merge(results, weights, limit), nil
}

// merge 按策略优先级与累计配额上限合并，内容 ID 首见者胜。
func (b *Blender) merge(results [][]*core.Candidate, weights []float64, limit int) []*core.Candidate {
	seen := make(map[string]struct{}, limit)
	out := make([]*core.Candidate, 0, limit)

	cumWeight := 0.0
	for i, cands := range results {
		cumWeight += weights[i]
		ceiling := int(math.Ceil(float64(limit) * cumWeight))
		if i == len(results)-1 || ceiling > limit {
			ceiling = limit
		}

		for _, c := range cands {
			if c == nil {
				continue
			}
			if len(out) >= ceiling {
				break
			}
			if _, dup := seen[c.ContentID]; dup {
				continue
			}
			seen[c.ContentID] = struct{}{}
			out = append(out, c)
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// defaultWeightsFor 返回与策略数对齐的权重：标准四路用 40/30/20/10，
// 其他数量平均分配。
func defaultWeightsFor(n int) []float64 {
	if n == len(core.DefaultBlendWeights) {
		return core.DefaultBlendWeights
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

var _ pipeline.Node = (*Blender)(nil)
