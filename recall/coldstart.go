package recall

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/utils"
)

// ColdStartSource 是零信号身份的推荐路径：高热度门槛 + 可选的注册类目偏好。
//
// 触发条件由引擎判定（身份没有任何信号）；触发后绕过 Blender，
// 本路输出即整个推荐响应。候选为播放量不低于 MinViewCount 的已发布公开内容，
// 给了注册类目偏好时进一步收窄到这些类目，按播放量降序。
type ColdStartSource struct {
	Content core.ContentStore

	// MinViewCount 高热度门槛，默认 10000
	MinViewCount int64
}

func (r *ColdStartSource) Name() string { return "recall.coldstart" }

func (r *ColdStartSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Candidate, error) {
	if rctx == nil || r.Content == nil || limit <= 0 {
		return nil, nil
	}

	floor := r.MinViewCount
	if floor <= 0 {
		floor = core.DefaultColdStartFloor
	}

	f := core.VisiblePublished()
	f.MinViewCount = floor
	f.CategoryIn = rctx.OnboardingCategories // 为空即不做类目限制

	items, err := r.Content.FindContent(ctx, f, core.OrderByPopularity, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0, len(items))
	for _, it := range items {
		if !it.Visible() {
			continue
		}
		c := core.NewCandidate(it.ID, float64(it.ViewCount), r.Name())
		c.Item = it
		if len(rctx.OnboardingCategories) > 0 {
			c.PutLabel("onboarding", utils.Label{Value: "true", Source: "recall"})
		}
		out = append(out, c)
	}
	return out, nil
}
