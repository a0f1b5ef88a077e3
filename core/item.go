package core

import (
	"time"

	"github.com/rushteam/feedkit/pkg/utils"
)

// ContentStatus 是内容发布状态。内容子系统负责流转，本子系统只读。
type ContentStatus string

const (
	StatusPublished ContentStatus = "published"
	StatusDraft     ContentStatus = "draft"
	StatusRemoved   ContentStatus = "removed"
)

// ContentItem 是内容元数据的只读快照，由内容子系统维护。
// 推荐链路只消费它：策略用计数器打分，重排用时长/端适配等属性做情境调权。
type ContentItem struct {
	ID        string
	CreatorID string

	CategoryIDs []string
	TagIDs      []string

	// 互动计数器（由内容子系统累加，这里只读）
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	ShareCount   int64

	// DurationSec 内容时长（秒），0 表示未知
	DurationSec int

	// MobileOptimized 是否为移动端优化内容（竖屏等）
	MobileOptimized bool

	PublishedAt time.Time
	IsPublic    bool
	Status      ContentStatus
}

// Visible 判断内容是否可被推荐：已发布且公开。
func (c *ContentItem) Visible() bool {
	return c != nil && c.Status == StatusPublished && c.IsPublic
}

// HasAnyCategory 判断内容类别与给定集合是否有交集。
func (c *ContentItem) HasAnyCategory(categoryIDs []string) bool {
	for _, want := range categoryIDs {
		for _, got := range c.CategoryIDs {
			if want == got {
				return true
			}
		}
	}
	return false
}

// Candidate 是推荐链路中的统一承载结构：一次请求内产生、从不落盘。
// Score 用于排序决策；Labels 用于解释与策略驱动；Item 携带重排所需的元数据，
// 使后续的情境重排可以保持纯函数（无 I/O）。
//
// 不变式：Score 恒为非负。策略对无法给出有效分数的内容应当直接不产出该候选，
// 而不是给 0 分或负分扰乱排序。
type Candidate struct {
	ContentID string
	Score     float64
	Source    string // 产出该候选的策略名，如 "recall.collaborative"
	Item      *ContentItem
	Labels    map[string]utils.Label
}

// NewCandidate 创建一个候选并打上来源标签。
func NewCandidate(contentID string, score float64, source string) *Candidate {
	c := &Candidate{
		ContentID: contentID,
		Score:     score,
		Source:    source,
		Labels:    make(map[string]utils.Label),
	}
	c.Labels["source"] = utils.Label{Value: source, Source: "recall"}
	return c
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// CandidateIDs 提取候选列表的内容 ID，保持顺序。
func CandidateIDs(cands []*Candidate) []string {
	ids := make([]string, 0, len(cands))
	for _, c := range cands {
		if c != nil {
			ids = append(ids, c.ContentID)
		}
	}
	return ids
}
