package recall

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/session"
)

// ContentBasedSource 是基于短期偏好画像的内容匹配召回。
//
// 算法流程：
//  1. 取最近 RecentSignals 条信号（匿名会话取行为缓存），聚合近期类目/标签/作者三个集合
//  2. 查询未看过、已发布、公开，且命中任一集合的内容
//  3. 分数取当前播放量——本策略的契约是“话题相关”而非“最热门”，
//     播放量只用于桶内排序，播放量相同者新发布的优先
//
// 没有任何偏好信号时返回空贡献。
type ContentBasedSource struct {
	Signals  core.SignalStore
	Content  core.ContentStore
	Sessions *session.Cache

	// RecentSignals 构建画像所用的最近信号条数，默认 10
	RecentSignals int

	// HistoryWindow 排除集的历史窗口，默认 100
	HistoryWindow int
}

func (r *ContentBasedSource) Name() string { return "recall.content" }

func (r *ContentBasedSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Candidate, error) {
	if rctx == nil || r.Content == nil || limit <= 0 {
		return nil, nil
	}

	pref, err := buildPreference(ctx, r.Signals, r.Content, r.Sessions, rctx, r.RecentSignals, r.HistoryWindow)
	if err != nil {
		return nil, err
	}
	if pref.empty() {
		return nil, nil
	}

	f := core.VisiblePublished()
	f.CategoryIn = pref.Categories
	f.TagIn = pref.Tags
	f.CreatorIn = pref.Creators
	f.ExcludeIDs = pref.Seen

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
		out = append(out, c)
	}
	return out, nil
}
