package recall

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/utils"
)

// Period 是热度计算的回看窗口。
type Period string

const (
	PeriodToday Period = "today" // 24h
	PeriodWeek  Period = "week"  // 168h
	PeriodMonth Period = "month" // 720h
)

// Lookback 返回窗口时长；未知取值按 week 处理。
func (p Period) Lookback() time.Duration {
	switch p {
	case PeriodToday:
		return 24 * time.Hour
	case PeriodMonth:
		return 720 * time.Hour
	default:
		return 168 * time.Hour
	}
}

const (
	// minHoursSincePublish 发布时刻与请求时刻重合时的钳制值（1 分钟），防止除零
	minHoursSincePublish = 1.0 / 60.0

	// decayHalfWindowHours 指数衰减的时间常数（约一周）
	decayHalfWindowHours = 168.0

	// defaultSnapshotSize 快照保留的条数
	defaultSnapshotSize = 500
)

// TrendingScore 计算单个内容的时间衰减热度分，与身份无关的纯函数：
//
//	viewVelocity    = viewCount / hoursSincePublish
//	engagementScore = (likes + 2*comments + 3*shares) / viewCount   （无播放则为 0）
//	timeDecay       = exp(-hoursSincePublish / 168)
//	trendingScore   = viewVelocity * (1 + engagementScore) * timeDecay
func TrendingScore(item *core.ContentItem, now time.Time) float64 {
	if item == nil {
		return 0
	}
	hours := now.Sub(item.PublishedAt).Hours()
	if hours < minHoursSincePublish {
		hours = minHoursSincePublish
	}

	velocity := float64(item.ViewCount) / hours

	var engagement float64
	if item.ViewCount > 0 {
		engagement = float64(item.LikeCount+2*item.CommentCount+3*item.ShareCount) / float64(item.ViewCount)
	}

	decay := math.Exp(-hours / decayHalfWindowHours)
	return velocity * (1 + engagement) * decay
}

// TrendingSource 是与身份无关的热度召回。
//
// 两条路径：
//   - Recalculate：离线按固定周期重算，把 TopN 快照写进缓存（幂等覆盖，可重复触发）
//   - Recall：优先读快照（最终一致），快照缺失时现算兜底
//
// 快照承载：KeyValueStore 用有序集合（member=内容 ID，score=热度分），
// 普通 Store 退化为 JSON 数组。与 Hot 召回的双路径读取一脉相承。
type TrendingSource struct {
	Content core.ContentStore

	// Cache 快照缓存，为 nil 时每次现算
	Cache core.Store

	// KeyPrefix 快照 key 前缀，实际 key 为 {KeyPrefix}:{period}，默认 "trending:items"
	KeyPrefix string

	// Period 回看窗口，默认 week
	Period Period

	// SnapshotSize 快照条数，默认 500
	SnapshotSize int

	// Now 可注入时钟（测试用），默认 time.Now
	Now func() time.Time
}

func (r *TrendingSource) Name() string { return "recall.trending" }

func (r *TrendingSource) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *TrendingSource) period() Period {
	if r.Period == "" {
		return PeriodWeek
	}
	return r.Period
}

func (r *TrendingSource) key(p Period) string {
	prefix := r.KeyPrefix
	if prefix == "" {
		prefix = "trending:items"
	}
	return prefix + ":" + string(p)
}

// Recalculate 重算指定窗口的热度快照并覆盖写入缓存。幂等，可按计划任务反复触发。
func (r *TrendingSource) Recalculate(ctx context.Context, p Period) error {
	if p == "" {
		p = r.period()
	}
	members, err := r.compute(ctx, p, r.snapshotSize())
	if err != nil {
		return err
	}
	if r.Cache == nil {
		return nil
	}

	key := r.key(p)
	if kv, ok := r.Cache.(core.KeyValueStore); ok {
		// 覆盖语义：先清空旧快照再写入
		if err := kv.Delete(ctx, key); err != nil && !core.IsStoreNotFound(err) {
			return err
		}
		for _, m := range members {
			if err := kv.ZAdd(ctx, key, m.Score, m.Member); err != nil {
				return err
			}
		}
		return nil
	}

	data, err := json.Marshal(members)
	if err != nil {
		return err
	}
	return r.Cache.Set(ctx, key, data)
}

func (r *TrendingSource) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
	limit int,
) ([]*core.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	p := r.period()

	members := r.readSnapshot(ctx, p, limit)
	if len(members) == 0 {
		// 快照缺失：现算兜底（最终一致，不回写——回写是计划任务的职责）
		computed, err := r.compute(ctx, p, limit)
		if err != nil {
			return nil, err
		}
		members = computed
	}
	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(members))
	scores := make(map[string]float64, len(members))
	for _, m := range members {
		ids = append(ids, m.Member)
		scores[m.Member] = m.Score
	}

	items, err := r.Content.GetContent(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*core.ContentItem, len(items))
	for _, it := range items {
		if it != nil {
			byID[it.ID] = it
		}
	}

	out := make([]*core.Candidate, 0, limit)
	for _, id := range ids {
		it, ok := byID[id]
		if !ok || !it.Visible() {
			continue // 快照滞后于下架，读侧兜底
		}
		c := core.NewCandidate(id, scores[id], r.Name())
		c.Item = it
		c.PutLabel("period", utils.Label{Value: string(p), Source: "recall"})
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// compute 拉取窗口内已发布公开内容并打分，降序返回 TopN。
func (r *TrendingSource) compute(ctx context.Context, p Period, limit int) ([]core.ZMember, error) {
	if r.Content == nil {
		return nil, nil
	}
	now := r.now()
	after := now.Add(-p.Lookback())

	f := core.VisiblePublished()
	f.PublishedAfter = &after

	items, err := r.Content.FindContent(ctx, f, core.OrderByPublishedAt, r.snapshotSize())
	if err != nil {
		return nil, err
	}

	members := make([]core.ZMember, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		score := TrendingScore(it, now)
		if score <= 0 {
			continue
		}
		members = append(members, core.ZMember{Member: it.ID, Score: score})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].Member < members[j].Member
	})
	if len(members) > limit {
		members = members[:limit]
	}
	return members, nil
}

func (r *TrendingSource) readSnapshot(ctx context.Context, p Period, limit int) []core.ZMember {
	if r.Cache == nil {
		return nil
	}
	key := r.key(p)

	if kv, ok := r.Cache.(core.KeyValueStore); ok {
		members, err := kv.ZRangeWithScores(ctx, key, 0, int64(limit)-1)
		if err == nil && len(members) > 0 {
			return members
		}
		return nil
	}

	data, err := r.Cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var members []core.ZMember
	if json.Unmarshal(data, &members) != nil {
		return nil
	}
	if len(members) > limit {
		members = members[:limit]
	}
	return members
}

func (r *TrendingSource) snapshotSize() int {
	if r.SnapshotSize > 0 {
		return r.SnapshotSize
	}
	return defaultSnapshotSize
}
