package recall

import (
	"context"

	"github.com/rushteam/feedkit/core"
)

// Source 表示一个可复用的召回策略（协同/内容/热度/多样性/冷启动）。
// 你可以把它理解为“可并发 fan-out 的策略单元”：只读、无副作用、
// 相互之间没有数据依赖，Blender 会并发调用并在超时/失败时把它当作空贡献。
//
// limit 是 Blender 期望的候选条数（通常是配额的 2 倍，用于抵消去重损耗）。
// 没有可用信号时返回 (nil, nil)：空贡献不是错误。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Candidate, error)
}
