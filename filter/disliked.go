package filter

import (
	"context"

	"github.com/rushteam/moodmeal/core"
)

// DislikedFilter 移除画像中标记为不喜欢的菜谱，只在学习开启时生效。
type DislikedFilter struct{}

func NewDislikedFilter() *DislikedFilter { return &DislikedFilter{} }

func (f *DislikedFilter) Name() string { return "filter.disliked" }

func (f *DislikedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || !rctx.Personalized() {
		return false, nil
	}
	return rctx.User.IsDisliked(item.ID), nil
}
