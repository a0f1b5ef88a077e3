package core

import (
	"context"
	"time"
)

// SignalKind 是互动信号类型。
type SignalKind string

const (
	SignalView  SignalKind = "view"
	SignalLike  SignalKind = "like"
	SignalSave  SignalKind = "save"
	SignalShare SignalKind = "share"
	SignalSkip  SignalKind = "skip"
)

// Signal 是一条不可变的互动记录，由信号库（外部协作方）追加写入。
// IdentityRef 既可以是稳定的 userID，也可以是匿名 sessionID。
type Signal struct {
	IdentityRef string
	ContentID   string
	Kind        SignalKind
	Timestamp   time.Time

	// 可选字段：仅 view 信号会携带，缺省为零值
	WatchDurationSec int
	CompletionRate   float64
}

// SignalStore 是信号库的领域接口（DIP：接口定义在 core，由外部实现）。
//
// 读路径约定：
//   - ListSignals 按时间倒序返回（最新在前）
//   - 信号库不可用时返回错误，调用方按“降级为空”处理
type SignalStore interface {
	// ListSignals 获取某个身份最近的 limit 条信号，最新在前
	ListSignals(ctx context.Context, identityRef string, limit int) ([]*Signal, error)

	// ListIdentitiesWithSignal 获取对给定内容集合产生过信号的身份列表。
	// 用于协同过滤的邻居发现：看过相同内容的人是潜在邻居。
	ListIdentitiesWithSignal(ctx context.Context, contentIDs []string) ([]string, error)
}

// WatchHistory 从信号列表提取观看历史内容 ID（仅 view，保持最近优先、去重）。
func WatchHistory(signals []*Signal) []string {
	seen := make(map[string]struct{}, len(signals))
	out := make([]string, 0, len(signals))
	for _, s := range signals {
		if s == nil || s.Kind != SignalView {
			continue
		}
		if _, ok := seen[s.ContentID]; ok {
			continue
		}
		seen[s.ContentID] = struct{}{}
		out = append(out, s.ContentID)
	}
	return out
}
