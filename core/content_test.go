package core

import (
	"testing"
	"time"
)

func TestMatchesFilter(t *testing.T) {
	published := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	item := &ContentItem{
		ID:          "c_1",
		CreatorID:   "creator_a",
		CategoryIDs: []string{"tech", "science"},
		TagIDs:      []string{"go", "backend"},
		ViewCount:   5000,
		PublishedAt: published,
		IsPublic:    true,
		Status:      StatusPublished,
	}

	after := published.Add(-time.Hour)
	tooLate := published.Add(time.Hour)

	tests := []struct {
		name   string
		item   *ContentItem
		filter ContentFilter
		want   bool
	}{
		{
			name:   "nil item never matches",
			item:   nil,
			filter: ContentFilter{},
			want:   false,
		},
		{
			name:   "empty filter matches everything",
			item:   item,
			filter: ContentFilter{},
			want:   true,
		},
		{
			name:   "status mismatch",
			item:   item,
			filter: ContentFilter{Status: StatusDraft},
			want:   false,
		},
		{
			name:   "public only rejects private",
			item:   &ContentItem{ID: "c_2", IsPublic: false, Status: StatusPublished},
			filter: ContentFilter{PublicOnly: true},
			want:   false,
		},
		{
			name:   "published after boundary is exclusive",
			item:   item,
			filter: ContentFilter{PublishedAfter: &tooLate},
			want:   false,
		},
		{
			name:   "published after passes",
			item:   item,
			filter: ContentFilter{PublishedAfter: &after},
			want:   true,
		},
		{
			name:   "min view count floor",
			item:   item,
			filter: ContentFilter{MinViewCount: 10000},
			want:   false,
		},
		{
			name:   "exclude ids",
			item:   item,
			filter: ContentFilter{ExcludeIDs: []string{"c_0", "c_1"}},
			want:   false,
		},
		{
			name:   "category OR tag OR creator: category hit",
			item:   item,
			filter: ContentFilter{CategoryIn: []string{"science"}, TagIn: []string{"nope"}},
			want:   true,
		},
		{
			name:   "category OR tag OR creator: tag hit only",
			item:   item,
			filter: ContentFilter{CategoryIn: []string{"nope"}, TagIn: []string{"go"}},
			want:   true,
		},
		{
			name:   "category OR tag OR creator: creator hit only",
			item:   item,
			filter: ContentFilter{CategoryIn: []string{"nope"}, CreatorIn: []string{"creator_a"}},
			want:   true,
		},
		{
			name:   "category OR tag OR creator: no dimension hits",
			item:   item,
			filter: ContentFilter{CategoryIn: []string{"nope"}, TagIn: []string{"nope"}, CreatorIn: []string{"nobody"}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesFilter(tt.item, tt.filter); got != tt.want {
				t.Errorf("MatchesFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisiblePublished(t *testing.T) {
	f := VisiblePublished()
	if f.Status != StatusPublished || !f.PublicOnly {
		t.Errorf("VisiblePublished() = %+v, want published + public only", f)
	}
}
