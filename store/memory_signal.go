package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/feedkit/core"
)

// MemorySignalStore 是行为信号库的内存实现，测试/示例用。
// 追加写，按时间倒序读（最新在前），与线上信号服务的契约一致。
type MemorySignalStore struct {
	mu      sync.RWMutex
	signals map[string][]*core.Signal // identityRef -> 按写入顺序
}

func NewMemorySignalStore() *MemorySignalStore {
	return &MemorySignalStore{signals: make(map[string][]*core.Signal)}
}

// Append 追加一条信号（测试种子数据入口）。
func (m *MemorySignalStore) Append(identityRef string, sigs ...*core.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals[identityRef] = append(m.signals[identityRef], sigs...)
}

func (m *MemorySignalStore) ListSignals(_ context.Context, identityRef string, limit int) ([]*core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.signals[identityRef]
	out := make([]*core.Signal, 0, limit)
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemorySignalStore) ListIdentitiesWithSignal(_ context.Context, contentIDs []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[string]struct{}, len(contentIDs))
	for _, id := range contentIDs {
		want[id] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []string
	for ref, sigs := range m.signals {
		for _, s := range sigs {
			if _, ok := want[s.ContentID]; ok {
				if _, dup := seen[ref]; !dup {
					seen[ref] = struct{}{}
					out = append(out, ref)
				}
				break
			}
		}
	}
	// map 遍历无序，排序保证结果可复现
	sort.Strings(out)
	return out, nil
}

var _ core.SignalStore = (*MemorySignalStore)(nil)
