// Package session 实现匿名会话的行为缓存：TTL 限定的轻量聚合，
// 在没有持久化信号历史的情况下充当策略的口味来源。
package session

import "time"

// Behavior 是一个匿名会话的行为聚合。
// 各集合都是幂等插入（重复追踪同一内容不会膨胀），每次追踪刷新 LastUpdated 与 TTL。
// 并发写同一会话时为 last-write-wins：缓存是建议性的而非权威数据，
// 丢掉的更新会在下一次浏览时自然补齐。
type Behavior struct {
	SessionID string `json:"session_id"`

	// ViewedContentIDs 按浏览顺序保存（最新在后），同时当作去重集合使用
	ViewedContentIDs []string `json:"viewed_content_ids"`
	LikedContentIDs  []string `json:"liked_content_ids"`

	CategoryIDs []string `json:"category_ids"`
	TagIDs      []string `json:"tag_ids"`
	CreatorIDs  []string `json:"creator_ids"`

	LastUpdated time.Time `json:"last_updated"`
}

// NewBehavior 创建空的会话行为聚合（首次追踪时惰性创建）。
func NewBehavior(sessionID string) *Behavior {
	return &Behavior{
		SessionID:   sessionID,
		LastUpdated: time.Now(),
	}
}

// AddView 记录一次浏览：内容进入已看集合，类目/标签/作者并入口味集合。
func (b *Behavior) AddView(contentID string, categoryIDs, tagIDs []string, creatorID string) {
	b.ViewedContentIDs = appendUnique(b.ViewedContentIDs, contentID)
	for _, id := range categoryIDs {
		b.CategoryIDs = appendUnique(b.CategoryIDs, id)
	}
	for _, id := range tagIDs {
		b.TagIDs = appendUnique(b.TagIDs, id)
	}
	if creatorID != "" {
		b.CreatorIDs = appendUnique(b.CreatorIDs, creatorID)
	}
	b.LastUpdated = time.Now()
}

// AddLike 记录一次点赞。
func (b *Behavior) AddLike(contentID string) {
	b.LikedContentIDs = appendUnique(b.LikedContentIDs, contentID)
	b.LastUpdated = time.Now()
}

// HasSignals 判断会话是否产生过任何行为（冷启动判定用）。
func (b *Behavior) HasSignals() bool {
	return b != nil && (len(b.ViewedContentIDs) > 0 || len(b.LikedContentIDs) > 0)
}

func appendUnique(s []string, v string) []string {
	if v == "" {
		return s
	}
	for _, e := range s {
		if e == v {
			return s
		}
	}
	return append(s, v)
}
