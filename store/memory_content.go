package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/feedkit/core"
)

// MemoryContentStore 是内容库接口的内存实现，用于测试/开发/示例。
// 生产环境中内容库是外部协作方（SQL/搜索引擎/RPC），这里只约定语义的参考实现：
// 过滤语义复用 core.MatchesFilter，保证与真实实现不漂移。
type MemoryContentStore struct {
	mu    sync.RWMutex
	items map[string]*core.ContentItem
}

func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{items: make(map[string]*core.ContentItem)}
}

// Put 写入或覆盖一条内容（示例/测试的种子数据入口）。
func (m *MemoryContentStore) Put(items ...*core.ContentItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		if it != nil && it.ID != "" {
			m.items[it.ID] = it
		}
	}
}

func (m *MemoryContentStore) FindContent(
	_ context.Context,
	filter core.ContentFilter,
	orderBy core.ContentOrder,
	limit int,
) ([]*core.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.ContentItem, 0, limit)
	for _, it := range m.items {
		if core.MatchesFilter(it, filter) {
			out = append(out, it)
		}
	}

	switch orderBy {
	case core.OrderByPublishedAt:
		sort.Slice(out, func(i, j int) bool {
			if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
				return out[i].PublishedAt.After(out[j].PublishedAt)
			}
			return out[i].ID < out[j].ID
		})
	default: // OrderByPopularity：播放量降序，相同者新发布优先
		sort.Slice(out, func(i, j int) bool {
			if out[i].ViewCount != out[j].ViewCount {
				return out[i].ViewCount > out[j].ViewCount
			}
			if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
				return out[i].PublishedAt.After(out[j].PublishedAt)
			}
			return out[i].ID < out[j].ID
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryContentStore) GetContent(_ context.Context, ids []string) ([]*core.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.ContentItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

var _ core.ContentStore = (*MemoryContentStore)(nil)
