package core

import "time"

// 推荐链路的缺省参数。各组件零值可用：字段未设置时在方法内部落到这些默认值，
// 与配置文件中的对应项保持一致。
const (
	// DefaultHistoryWindow 协同过滤考察的观看历史窗口（条）
	DefaultHistoryWindow = 100

	// DefaultMinSimilarity 邻居的最小 Jaccard 相似度门槛
	DefaultMinSimilarity = 0.1

	// DefaultMaxNeighbors 保留的最大邻居数
	DefaultMaxNeighbors = 50

	// DefaultRecentSignals 内容匹配策略构建短期偏好画像所用的最近信号条数
	DefaultRecentSignals = 10

	// DefaultColdStartFloor 冷启动候选的播放量下限
	DefaultColdStartFloor = 10000

	// DefaultExploitRatio explore/exploit 交织中取个性化列表的概率
	DefaultExploitRatio = 0.8

	// DefaultSessionTTL 会话行为缓存的不活跃过期窗口
	DefaultSessionTTL = time.Hour

	// DefaultStrategyTimeout 单个召回策略的超时；超时即降级为空贡献
	DefaultStrategyTimeout = 300 * time.Millisecond

	// DefaultTrendingRefresh 热度快照的重算周期
	DefaultTrendingRefresh = 6 * time.Hour
)

// DefaultBlendWeights 四路策略的配额权重：协同 40%、内容 30%、热度 20%、多样性 10%。
// 顺序即策略优先级，前一路未填满的额度由后一路补位。
var DefaultBlendWeights = []float64{0.4, 0.3, 0.2, 0.1}
