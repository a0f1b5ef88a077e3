package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/utils"
)

// 情境调权系数。各项独立判断、乘法复合。
const (
	// 早晨偏好短内容
	morningShortBoost = 1.2
	shortDurationSec  = 600

	// 移动端偏好移动优化内容
	mobileBoost = 1.15

	// 候选类目与近期类目有交集
	affinityBoost = 1.1

	// 同一作者在近期作者列表出现超过两次：疲劳降权
	fatiguePenalty   = 0.7
	fatigueThreshold = 2
)

// Rerank 是情境重排：对已混合的列表按时段/设备/亲和/疲劳做乘法调权后重新排序。
//
// 纯函数：无 I/O、无隐藏随机性，相同输入给出相同输出；调权所需的内容元数据
// 全部来自候选自带的 Item，缺元数据的候选保持原分。排序稳定，
// 分数相同者保持输入相对顺序。输入切片不被修改。
func Rerank(cands []*core.Candidate, uctx *core.UserContext) []*core.Candidate {
	if len(cands) == 0 {
		return nil
	}
	if uctx == nil {
		out := make([]*core.Candidate, len(cands))
		copy(out, cands)
		return out
	}

	out := make([]*core.Candidate, 0, len(cands))
	for _, c := range cands {
		if c == nil {
			continue
		}
		adjusted := *c
		multiplier := contextMultiplier(c, uctx)
		adjusted.Score = c.Score * multiplier
		if multiplier != 1 {
			adjusted.PutLabel("context_multiplier", utils.Label{
				Value:  fmt.Sprintf("%.3f", multiplier),
				Source: "rerank",
			})
		}
		out = append(out, &adjusted)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func contextMultiplier(c *core.Candidate, uctx *core.UserContext) float64 {
	it := c.Item
	if it == nil {
		return 1
	}

	m := 1.0
	if uctx.TimeOfDay == core.Morning && it.DurationSec > 0 && it.DurationSec < shortDurationSec {
		m *= morningShortBoost
	}
	if uctx.Device == core.DeviceMobile && it.MobileOptimized {
		m *= mobileBoost
	}
	if it.HasAnyCategory(uctx.RecentCategoryIDs) {
		m *= affinityBoost
	}
	if creatorCount(uctx.RecentCreatorIDs, it.CreatorID) > fatigueThreshold {
		m *= fatiguePenalty
	}
	return m
}

func creatorCount(recent []string, creatorID string) int {
	if creatorID == "" {
		return 0
	}
	n := 0
	for _, id := range recent {
		if id == creatorID {
			n++
		}
	}
	return n
}

// ContextualNode 是 Rerank 的 Node 形态，情境取自 rctx.Context，缺情境时原样透传。
type ContextualNode struct{}

func (n *ContextualNode) Name() string        { return "rerank.context" }
func (n *ContextualNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *ContextualNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	if rctx == nil || rctx.Context == nil {
		return cands, nil
	}
	return Rerank(cands, rctx.Context), nil
}

var _ pipeline.Node = (*ContextualNode)(nil)
