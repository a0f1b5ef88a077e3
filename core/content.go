package core

import (
	"context"
	"time"
)

// ContentOrder 是内容查询的排序方式。
type ContentOrder string

const (
	// OrderByPopularity 按 viewCount 降序；viewCount 相同者按 publishedAt 降序（新者优先）
	OrderByPopularity ContentOrder = "popularity"

	// OrderByPublishedAt 按发布时间降序
	OrderByPublishedAt ContentOrder = "published_at"
)

// ContentFilter 是内容查询的类型化过滤条件。
// 原始实现中这些条件是松散的 map，这里固化为显式结构：必填语义与可选语义一目了然。
//
// 组合语义：
//   - Status / PublicOnly / PublishedAfter / ExcludeIDs / MinViewCount 之间为 AND
//   - CategoryIn / TagIn / CreatorIn 三者之间为 OR（命中任意一项即符合），
//     用于内容匹配策略的“任一维度话题相关”查询；全部为空时不做该维度限制
type ContentFilter struct {
	Status     ContentStatus
	PublicOnly bool

	CategoryIn []string
	TagIn      []string
	CreatorIn  []string

	PublishedAfter *time.Time
	ExcludeIDs     []string

	// MinViewCount 播放量下限（冷启动用高热度门槛，0 表示不限制）
	MinViewCount int64
}

// VisiblePublished 返回“已发布且公开”的基础过滤条件，推荐链路所有查询的起点。
func VisiblePublished() ContentFilter {
	return ContentFilter{Status: StatusPublished, PublicOnly: true}
}

// ContentStore 是内容库的领域接口（只读，内容子系统负责写入）。
//
// 实现可以是任何存储：SQL、搜索引擎、RPC 服务。feedkit 不关心，只约定语义。
type ContentStore interface {
	// FindContent 按条件查询内容，按 orderBy 排序，最多 limit 条
	FindContent(ctx context.Context, filter ContentFilter, orderBy ContentOrder, limit int) ([]*ContentItem, error)

	// GetContent 按 ID 批量获取内容元数据；不存在的 ID 直接缺席，不报错。
	// 用于给召回阶段只有 ID 的候选补齐元数据（可见性校验、纯函数重排）。
	GetContent(ctx context.Context, ids []string) ([]*ContentItem, error)
}

// MatchesFilter 判断单个内容是否满足过滤条件，语义与 ContentFilter 文档一致。
// 供内存实现与测试 fake 复用，保证各实现之间的过滤语义不漂移。
func MatchesFilter(item *ContentItem, f ContentFilter) bool {
	if item == nil {
		return false
	}
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	if f.PublicOnly && !item.IsPublic {
		return false
	}
	if f.PublishedAfter != nil && !item.PublishedAt.After(*f.PublishedAfter) {
		return false
	}
	if f.MinViewCount > 0 && item.ViewCount < f.MinViewCount {
		return false
	}
	for _, ex := range f.ExcludeIDs {
		if item.ID == ex {
			return false
		}
	}

	// CategoryIn / TagIn / CreatorIn 之间为 OR
	if len(f.CategoryIn) == 0 && len(f.TagIn) == 0 && len(f.CreatorIn) == 0 {
		return true
	}
	if item.HasAnyCategory(f.CategoryIn) {
		return true
	}
	for _, want := range f.TagIn {
		for _, got := range item.TagIDs {
			if want == got {
				return true
			}
		}
	}
	for _, want := range f.CreatorIn {
		if item.CreatorID == want {
			return true
		}
	}
	return false
}
