package filter

import (
	"context"

	"github.com/rushteam/feedkit/core"
)

// VisibilityFilter 过滤未发布或私密内容。纯内存判断，无 I/O。
// 候选没有携带元数据时保留——可见性由产出它的策略在查询层保证。
type VisibilityFilter struct{}

func (f *VisibilityFilter) Name() string {
	return "filter.visibility"
}

func (f *VisibilityFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil {
		return true, nil
	}
	if c.Item == nil {
		return false, nil
	}
	return !c.Item.Visible(), nil
}
