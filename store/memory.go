package store

import (
	"context"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/rushteam/feedkit/core"
)

// MemoryStore 是内存实现的 Store，用于测试/开发/单机部署。
// KV 部分基于 go-cache（带后台清扫的 TTL 缓存），有序集合部分进程内自管。
// 进程重启后数据丢失；生产环境用 RedisStore。
type MemoryStore struct {
	cache *gocache.Cache

	zmu   sync.RWMutex
	zsets map[string]map[string]float64 // key -> member -> score
}

// NewMemoryStore 创建内存 Store，过期 key 每 10 秒清扫一次。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 10*time.Second),
		zsets: make(map[string]map[string]float64),
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return data, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	expiration := gocache.NoExpiration
	if len(ttl) > 0 && ttl[0] > 0 {
		expiration = time.Duration(ttl[0]) * time.Second
	}
	m.cache.Set(key, value, expiration)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)

	m.zmu.Lock()
	delete(m.zsets, key)
	m.zmu.Unlock()
	return nil
}

func (m *MemoryStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if data, err := m.Get(ctx, k); err == nil {
			result[k] = data
		}
	}
	return result, nil
}

func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}

// KeyValueStore 扩展：有序集合操作

var _ core.KeyValueStore = (*MemoryStore)(nil)

func (m *MemoryStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	m.zmu.Lock()
	defer m.zmu.Unlock()

	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] = score
	return nil
}

func (m *MemoryStore) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	members, err := m.ZRangeWithScores(ctx, key, start, stop)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(members))
	for _, zm := range members {
		out = append(out, zm.Member)
	}
	return out, nil
}

func (m *MemoryStore) ZRangeWithScores(_ context.Context, key string, start, stop int64) ([]core.ZMember, error) {
	m.zmu.RLock()
	defer m.zmu.RUnlock()

	zset, ok := m.zsets[key]
	if !ok || len(zset) == 0 {
		return nil, nil
	}

	pairs := make([]core.ZMember, 0, len(zset))
	for member, score := range zset {
		pairs = append(pairs, core.ZMember{Member: member, Score: score})
	}
	// 按 score 降序；score 相同按 member 排序，保证结果确定
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		return pairs[i].Member < pairs[j].Member
	})

	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(pairs)) {
		stop = int64(len(pairs)) - 1
	}
	if start > stop {
		return nil, nil
	}
	return pairs[start : stop+1], nil
}

func (m *MemoryStore) ZScore(_ context.Context, key string, member string) (float64, error) {
	m.zmu.RLock()
	defer m.zmu.RUnlock()

	zset, ok := m.zsets[key]
	if !ok {
		return 0, core.ErrStoreNotFound
	}
	score, ok := zset[member]
	if !ok {
		return 0, core.ErrStoreNotFound
	}
	return score, nil
}
