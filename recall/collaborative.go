package recall

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/utils"
	"github.com/rushteam/feedkit/session"
)

// CollaborativeSource 是基于观看历史重合度的协同过滤召回（User-CF）。
//
// 核心思想："看过相同内容的用户，口味相近"
//
// 算法流程（已登录用户）：
//  1. 取请求者最近 HistoryWindow 条观看历史
//  2. 经信号库倒排找出看过任一相同内容的候选邻居
//  3. 对每个候选邻居取其同窗口历史，计算 Jaccard = |交集| / |并集|
//  4. 保留相似度 >= MinSimilarity 的邻居，按相似度降序截到 MaxNeighbors
//  5. 邻居看过而请求者没看过的内容成为候选，按看过它的邻居数
//     （或邻居相似度加权和）排序
//
// 匿名会话没有可挖掘的跨会话历史，退化为会话行为的类目/标签重合召回。
// 历史为空时返回空贡献，不是错误。
type CollaborativeSource struct {
	Signals  core.SignalStore
	Content  core.ContentStore
	Sessions *session.Cache

	// HistoryWindow 观看历史窗口（条），默认 100
	HistoryWindow int

	// MinSimilarity 邻居的最小 Jaccard 相似度，默认 0.1
	MinSimilarity float64

	// MaxNeighbors 保留的最大邻居数，默认 50
	MaxNeighbors int

	// Weighted 为 true 时候选按邻居相似度加权求和排序，否则按邻居计数
	Weighted bool
}

func (r *CollaborativeSource) Name() string { return "recall.collaborative" }

func (r *CollaborativeSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Candidate, error) {
	if rctx == nil || limit <= 0 {
		return nil, nil
	}

	if rctx.IsAnonymous() {
		return r.recallFromSession(ctx, rctx, limit)
	}
	return r.recallFromHistory(ctx, rctx, limit)
}

func (r *CollaborativeSource) recallFromHistory(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Candidate, error) {
	if r.Signals == nil {
		return nil, nil
	}

	window := r.HistoryWindow
	if window <= 0 {
		window = core.DefaultHistoryWindow
	}

	recent, err := r.Signals.ListSignals(ctx, rctx.UserID, window)
	if err != nil {
		return nil, err
	}
	history := core.WatchHistory(recent)
	if len(history) == 0 {
		return nil, nil
	}
	historySet := make(map[string]struct{}, len(history))
	for _, id := range history {
		historySet[id] = struct{}{}
	}

	// 邻居发现：看过任一相同内容的身份
	identities, err := r.Signals.ListIdentitiesWithSignal(ctx, history)
	if err != nil {
		return nil, err
	}

	minSim := r.MinSimilarity
	if minSim <= 0 {
		minSim = core.DefaultMinSimilarity
	}
	maxNeighbors := r.MaxNeighbors
	if maxNeighbors <= 0 {
		maxNeighbors = core.DefaultMaxNeighbors
	}

	type neighbor struct {
		identity   string
		similarity float64
		history    []string
	}
	neighbors := make([]neighbor, 0, len(identities))

	for _, identity := range identities {
		if identity == rctx.UserID {
			continue // 跳过自己
		}
		theirSignals, err := r.Signals.ListSignals(ctx, identity, window)
		if err != nil {
			continue // 单个邻居取数失败不拖垮整路召回
		}
		theirHistory := core.WatchHistory(theirSignals)
		if len(theirHistory) == 0 {
			continue
		}

		sim := jaccard(historySet, theirHistory)
		if sim < minSim {
			continue
		}
		neighbors = append(neighbors, neighbor{
			identity:   identity,
			similarity: sim,
			history:    theirHistory,
		})
	}

	// 按相似度降序；相同者按身份排序，保证结果确定
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].identity < neighbors[j].identity
	})
	if len(neighbors) > maxNeighbors {
		neighbors = neighbors[:maxNeighbors]
	}
	if len(neighbors) == 0 {
		return nil, nil
	}

	// 候选打分：邻居看过、请求者没看过的内容
	scores := make(map[string]float64)
	for _, nb := range neighbors {
		for _, contentID := range nb.history {
			if _, seen := historySet[contentID]; seen {
				continue
			}
			if r.Weighted {
				scores[contentID] += nb.similarity
			} else {
				scores[contentID]++
			}
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	ranked := rankScores(scores)
	// 超量取再做可见性过滤，补偿下架/私密内容的损耗
	fetch := limit * 2
	if len(ranked) > fetch {
		ranked = ranked[:fetch]
	}

	out, err := r.attachItems(ctx, rctx, ranked, scores, limit)
	if err != nil {
		return nil, err
	}
	for _, c := range out {
		c.PutLabel("neighbors", utils.Label{
			Value:  strconv.Itoa(len(neighbors)),
			Source: "recall",
		})
	}
	return out, nil
}

// recallFromSession 是匿名会话的退化路径：用会话行为的类目/标签集合做重合召回。
func (r *CollaborativeSource) recallFromSession(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Candidate, error) {
	if r.Sessions == nil || r.Content == nil {
		return nil, nil
	}
	b, ok, err := r.Sessions.Get(ctx, rctx.SessionID)
	if err != nil {
		return nil, err
	}
	if !ok || (len(b.CategoryIDs) == 0 && len(b.TagIDs) == 0) {
		return nil, nil
	}

	f := core.VisiblePublished()
	f.CategoryIn = b.CategoryIDs
	f.TagIn = b.TagIDs
	f.ExcludeIDs = b.ViewedContentIDs

	items, err := r.Content.FindContent(ctx, f, core.OrderByPopularity, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0, len(items))
	for _, it := range items {
		if !it.Visible() {
			continue
		}
		// 分数 = 与会话口味的重合维度数，保证非负且可解释
		score := overlapCount(it.CategoryIDs, b.CategoryIDs) + overlapCount(it.TagIDs, b.TagIDs)
		if score == 0 {
			continue
		}
		c := core.NewCandidate(it.ID, float64(score), r.Name())
		c.Item = it
		c.PutLabel("variant", utils.Label{Value: "session_overlap", Source: "recall"})
		out = append(out, c)
	}
	return out, nil
}

func (r *CollaborativeSource) attachItems(
	ctx context.Context,
	_ *core.RecommendContext,
	rankedIDs []string,
	scores map[string]float64,
	limit int,
) ([]*core.Candidate, error) {
	if r.Content == nil {
		return nil, nil
	}
	items, err := r.Content.GetContent(ctx, rankedIDs)
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
	for _, id := range rankedIDs {
		it, ok := byID[id]
		if !ok || !it.Visible() {
			continue
		}
		c := core.NewCandidate(id, scores[id], r.Name())
		c.Item = it
		out = append(out, c)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// jaccard 计算 |A∩B| / |A∪B|。a 以集合传入，b 允许含重复（先去重）。
func jaccard(a map[string]struct{}, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	bSet := make(map[string]struct{}, len(b))
	for _, id := range b {
		bSet[id] = struct{}{}
	}

	intersection := 0
	for id := range bSet {
		if _, ok := a[id]; ok {
			intersection++
		}
	}
	union := len(a) + len(bSet) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// rankScores 把分数表转成降序 ID 列表；分数相同按 ID 排序，保证结果确定。
func rankScores(scores map[string]float64) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func overlapCount(a, b []string) int {
	n := 0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				n++
				break
			}
		}
	}
	return n
}
