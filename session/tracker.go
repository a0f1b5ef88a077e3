package session

import (
	"context"

	"go.uber.org/zap"
)

// Tracker 负责把匿名会话的浏览/点赞事件写进行为缓存。
//
// 契约：best-effort、非阻塞。Async 开启时写入在独立 goroutine 中完成，
// 调用方不能依赖返回前写入已落地；失败只记日志，从不向上冒泡。
// 已登录用户的浏览由信号库（外部协作方）记录，不走这里。
//
// 并发语义：同一会话的两次快速追踪是 read-modify-write，后写覆盖先写。
// 真并发下丢更新可接受——缓存是建议性的，条目在下一次浏览时自愈。
type Tracker struct {
	Cache *Cache

	// Async 为 true 时追踪在后台 goroutine 执行（服务端默认形态）
	Async bool

	// Logger 可注入，默认 Nop
	Logger *zap.Logger
}

// NewTracker 创建事件追踪器。
func NewTracker(cache *Cache) *Tracker {
	return &Tracker{Cache: cache, Async: true}
}

func (t *Tracker) logger() *zap.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return zap.NewNop()
}

// TrackView 记录一次匿名浏览。
func (t *Tracker) TrackView(ctx context.Context, sessionID, contentID string, categoryIDs, tagIDs []string, creatorID string) {
	t.track(ctx, sessionID, func(b *Behavior) {
		b.AddView(contentID, categoryIDs, tagIDs, creatorID)
	})
}

// TrackLike 记录一次匿名点赞。
func (t *Tracker) TrackLike(ctx context.Context, sessionID, contentID string) {
	t.track(ctx, sessionID, func(b *Behavior) {
		b.AddLike(contentID)
	})
}

func (t *Tracker) track(ctx context.Context, sessionID string, mutate func(*Behavior)) {
	if t.Cache == nil || sessionID == "" {
		return
	}

	if t.Async {
		// 与请求生命周期解耦：调用方的 ctx 取消不应中断已发出的追踪
		go t.apply(context.WithoutCancel(ctx), sessionID, mutate)
		return
	}
	t.apply(ctx, sessionID, mutate)
}

func (t *Tracker) apply(ctx context.Context, sessionID string, mutate func(*Behavior)) {
	b, ok, err := t.Cache.Get(ctx, sessionID)
	if err != nil {
		t.logger().Warn("session track: read behavior failed",
			zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if !ok {
		b = NewBehavior(sessionID)
	}

	mutate(b)

	if err := t.Cache.Set(ctx, b); err != nil {
		t.logger().Warn("session track: write behavior failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}
