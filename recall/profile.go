package recall

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/session"
)

// preference 是一次请求内构建的短期偏好画像：近期类目/标签/作者集合，
// 外加已看内容的排除集。内容匹配策略拿它做“命中任一维度”查询，
// 多样性策略拿它反着用——作为排除条件。
type preference struct {
	Categories []string
	Tags       []string
	Creators   []string

	// Seen 已看内容 ID（历史窗口内），所有策略的统一排除集
	Seen []string
}

func (p *preference) empty() bool {
	return len(p.Categories) == 0 && len(p.Tags) == 0 && len(p.Creators) == 0
}

// hasCreator 判断作者是否在近期作者集合内。
func (p *preference) hasCreator(creatorID string) bool {
	for _, id := range p.Creators {
		if id == creatorID {
			return true
		}
	}
	return false
}

// buildPreference 构建短期偏好画像。
//
// 已登录用户：取最近 recentN 条信号对应的内容元数据，聚合类目/标签/作者；
// 排除集取整个历史窗口的观看记录。
// 匿名会话：直接用会话行为缓存里追踪好的集合，缓存未命中即空画像。
func buildPreference(
	ctx context.Context,
	signals core.SignalStore,
	content core.ContentStore,
	sessions *session.Cache,
	rctx *core.RecommendContext,
	recentN, historyWindow int,
) (*preference, error) {
	if recentN <= 0 {
		recentN = core.DefaultRecentSignals
	}
	if historyWindow <= 0 {
		historyWindow = core.DefaultHistoryWindow
	}

	if rctx.IsAnonymous() {
		if sessions == nil {
			return &preference{}, nil
		}
		b, ok, err := sessions.Get(ctx, rctx.SessionID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &preference{}, nil
		}
		return &preference{
			Categories: b.CategoryIDs,
			Tags:       b.TagIDs,
			Creators:   b.CreatorIDs,
			Seen:       b.ViewedContentIDs,
		}, nil
	}

	if signals == nil {
		return &preference{}, nil
	}
	recent, err := signals.ListSignals(ctx, rctx.UserID, historyWindow)
	if err != nil {
		return nil, err
	}

	p := &preference{Seen: core.WatchHistory(recent)}

	// 最近 recentN 条信号决定短期口味
	if len(recent) > recentN {
		recent = recent[:recentN]
	}
	ids := make([]string, 0, len(recent))
	dedup := make(map[string]struct{}, len(recent))
	for _, s := range recent {
		if s == nil {
			continue
		}
		if _, ok := dedup[s.ContentID]; ok {
			continue
		}
		dedup[s.ContentID] = struct{}{}
		ids = append(ids, s.ContentID)
	}
	if len(ids) == 0 {
		return p, nil
	}

	if content == nil {
		return p, nil
	}
	items, err := content.GetContent(ctx, ids)
	if err != nil {
		return nil, err
	}
	catSet := make(map[string]struct{})
	tagSet := make(map[string]struct{})
	creatorSet := make(map[string]struct{})
	for _, it := range items {
		if it == nil {
			continue
		}
		for _, c := range it.CategoryIDs {
			if _, ok := catSet[c]; !ok {
				catSet[c] = struct{}{}
				p.Categories = append(p.Categories, c)
			}
		}
		for _, t := range it.TagIDs {
			if _, ok := tagSet[t]; !ok {
				tagSet[t] = struct{}{}
				p.Tags = append(p.Tags, t)
			}
		}
		if it.CreatorID != "" {
			if _, ok := creatorSet[it.CreatorID]; !ok {
				creatorSet[it.CreatorID] = struct{}{}
				p.Creators = append(p.Creators, it.CreatorID)
			}
		}
	}
	return p, nil
}
