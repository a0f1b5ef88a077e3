package filter

import (
	"context"
	"sync"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/session"
)

// SeenFilter 过滤身份已经看过的内容。
// 已登录用户查信号库的观看历史，匿名会话查行为缓存的已看集合。
//
// 各策略在查询层已经带了排除集，这个过滤器是链路末端的兜底：
// 防止策略间时间差或缓存滞后把看过的内容重新放出来。
type SeenFilter struct {
	Signals  core.SignalStore
	Sessions *session.Cache

	// HistoryWindow 观看历史窗口，默认 100
	HistoryWindow int

	// 同一请求内惰性拉一次历史，按候选逐个比对
	once sync.Once
	seen map[string]struct{}
}

// NewSeenFilter 创建已看过滤器。注意实例按请求创建，不要跨请求复用
// （已看集合在首次调用时快照，之后不再刷新）。
func NewSeenFilter(signals core.SignalStore, sessions *session.Cache) *SeenFilter {
	return &SeenFilter{Signals: signals, Sessions: sessions}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	c *core.Candidate,
) (bool, error) {
	if c == nil || rctx == nil {
		return false, nil
	}

	f.once.Do(func() { f.load(ctx, rctx) })

	_, seen := f.seen[c.ContentID]
	return seen, nil
}

func (f *SeenFilter) load(ctx context.Context, rctx *core.RecommendContext) {
	f.seen = make(map[string]struct{})

	if rctx.IsAnonymous() {
		if f.Sessions == nil {
			return
		}
		b, ok, err := f.Sessions.Get(ctx, rctx.SessionID)
		if err != nil || !ok {
			return // 取数失败不过滤：宁可放出也不误杀
		}
		for _, id := range b.ViewedContentIDs {
			f.seen[id] = struct{}{}
		}
		return
	}

	if f.Signals == nil {
		return
	}
	window := f.HistoryWindow
	if window <= 0 {
		window = core.DefaultHistoryWindow
	}
	signals, err := f.Signals.ListSignals(ctx, rctx.UserID, window)
	if err != nil {
		return
	}
	for _, id := range core.WatchHistory(signals) {
		f.seen[id] = struct{}{}
	}
}
