package filter

import (
	"context"
	"strings"

	"github.com/rushteam/moodmeal/core"
)

// 表示"不限"的约束取值。
const (
	AnyDiet    = "Any"
	AllCuisine = "All"
)

// ConstraintFilter 按请求中的 Constraints 过滤：
//
//	diet       忽略大小写相等，"Any" 或空串不限
//	meal_time  忽略大小写相等，空串不限
//	cook_time  <= MaxCookTime，<= 0 不限
//	cuisine    精确相等，"All" 或空串不限
type ConstraintFilter struct{}

func NewConstraintFilter() *ConstraintFilter { return &ConstraintFilter{} }

func (f *ConstraintFilter) Name() string { return "filter.constraint" }

func (f *ConstraintFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || item.Recipe == nil {
		return true, nil
	}
	if rctx == nil {
		return false, nil
	}
	return !Matches(item.Recipe, rctx.Constraints), nil
}

// Matches 判断菜谱是否满足约束。
func Matches(r *core.Recipe, c core.Constraints) bool {
	if c.Diet != "" && c.Diet != AnyDiet && !strings.EqualFold(r.Diet, c.Diet) {
		return false
	}
	if c.MealTime != "" && !strings.EqualFold(r.MealTime, c.MealTime) {
		return false
	}
	if c.MaxCookTime > 0 && r.CookTime > c.MaxCookTime {
		return false
	}
	if c.Cuisine != "" && c.Cuisine != AllCuisine && r.Cuisine != c.Cuisine {
		return false
	}
	return true
}
