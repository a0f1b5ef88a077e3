package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rushteam/feedkit/core"
)

// Cache 是会话行为的可注入缓存抽象：JSON 编码后写入 core.Store，TTL 交给后端。
// 原始实现是进程级单例 map + 后台定时清扫，这里显式化：挂内存 Store 得到单机形态，
// 挂 Redis Store 得到多实例共享形态，行为不变。
//
// 读方约定：缓存未命中（含 TTL 过期）意味着“没有行为”，不是错误。
type Cache struct {
	Store core.Store

	// KeyPrefix 缓存 key 前缀，实际 key 为 {KeyPrefix}:{sessionID}
	KeyPrefix string

	// TTL 不活跃过期窗口，默认 1 小时；每次写入都会重置
	TTL time.Duration
}

// NewCache 创建会话行为缓存。
func NewCache(s core.Store) *Cache {
	return &Cache{Store: s}
}

func (c *Cache) key(sessionID string) string {
	prefix := c.KeyPrefix
	if prefix == "" {
		prefix = "session:behavior"
	}
	return prefix + ":" + sessionID
}

func (c *Cache) ttlSeconds() int {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = core.DefaultSessionTTL
	}
	return int(ttl / time.Second)
}

// Get 读取会话行为。未命中返回 (nil, false, nil)；只有后端真正故障才返回 error。
func (c *Cache) Get(ctx context.Context, sessionID string) (*Behavior, bool, error) {
	if c.Store == nil || sessionID == "" {
		return nil, false, nil
	}

	data, err := c.Store.Get(ctx, c.key(sessionID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var b Behavior
	if err := json.Unmarshal(data, &b); err != nil {
		// 缓存内容损坏按未命中处理，下一次追踪会重建
		return nil, false, nil
	}
	return &b, true, nil
}

// Set 写入会话行为并重置 TTL。
func (c *Cache) Set(ctx context.Context, b *Behavior) error {
	if c.Store == nil || b == nil || b.SessionID == "" {
		return nil
	}

	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.Store.Set(ctx, c.key(b.SessionID), data, c.ttlSeconds())
}

// Delete 删除会话行为（会话注销时调用）。
func (c *Cache) Delete(ctx context.Context, sessionID string) error {
	if c.Store == nil || sessionID == "" {
		return nil
	}
	return c.Store.Delete(ctx, c.key(sessionID))
}
