package recall

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/session"
)

// DiversitySource 是破茧召回：刻意取身份近期口味**之外**的内容，
// 保证最终列表总有一部分跳出既有偏好（对抗 filter bubble）。
//
// 与内容匹配策略用同一套近期类目/作者集合，但语义反转——集合作为排除条件：
// 候选不得属于任何近期类目、不得出自任何近期作者、未看过、已发布且公开。
// 桶内按播放量降序。
//
// 内容库的查询边界只有“命中”语义没有“排除”语义（外部接口约束），
// 所以这里超量取热门候选再在本地做排除过滤。
type DiversitySource struct {
	Signals  core.SignalStore
	Content  core.ContentStore
	Sessions *session.Cache

	// RecentSignals 画像窗口，默认 10
	RecentSignals int

	// HistoryWindow 排除集窗口，默认 100
	HistoryWindow int

	// OverFetch 超量倍数，补偿本地排除的损耗，默认 4
	OverFetch int
}

func (r *DiversitySource) Name() string { return "recall.diversity" }

func (r *DiversitySource) Recall(
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

	overFetch := r.OverFetch
	if overFetch <= 0 {
		overFetch = 4
	}

	f := core.VisiblePublished()
	f.ExcludeIDs = pref.Seen

	items, err := r.Content.FindContent(ctx, f, core.OrderByPopularity, limit*overFetch)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0, limit)
	for _, it := range items {
		if !it.Visible() {
			continue
		}
		// 排除语义：近期类目或近期作者命中即出局
		if it.HasAnyCategory(pref.Categories) {
			continue
		}
		if pref.hasCreator(it.CreatorID) {
			continue
		}
		c := core.NewCandidate(it.ID, float64(it.ViewCount), r.Name())
		c.Item = it
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
