package filter

import (
	"context"

	"github.com/rushteam/moodmeal/core"
)

// BlacklistFilter 过滤掉配置中屏蔽的菜谱标题。
type BlacklistFilter struct {
	titles map[string]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(titles []string) *BlacklistFilter {
	set := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		set[t] = struct{}{}
	}
	return &BlacklistFilter{titles: set}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, blocked := f.titles[item.ID]
	return blocked, nil
}
