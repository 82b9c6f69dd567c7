package catalog

import (
	"regexp"
	"strings"
)

var (
	comfortPattern = regexp.MustCompile(`comfort|cozy|warm|sooth`)
	healthyPattern = regexp.MustCompile(`fresh|light|healthy|clean`)
)

// QuickCookTime 是"快手菜"的时长上限（分钟）。
const QuickCookTime = 15

// Stats 是目录统计。
type Stats struct {
	TotalRecipes   int            `json:"total_recipes"`
	Cuisines       map[string]int `json:"cuisines"`
	Diets          map[string]int `json:"diets"`
	MealTimes      map[string]int `json:"meal_times"`
	AvgCookTime    float64        `json:"avg_cook_time"`
	MinCookTime    int            `json:"min_cook_time"`
	MaxCookTime    int            `json:"max_cook_time"`
	QuickRecipes   int            `json:"quick_recipes"`
	ComfortRecipes int            `json:"comfort_recipes"`
	HealthyRecipes int            `json:"healthy_recipes"`
}

// IsQuick 判断菜谱是否在 QuickCookTime 内完成。
func IsQuick(cookTime int) bool { return cookTime <= QuickCookTime }

// IsComfort 判断描述是否带有安慰系的词。
func IsComfort(description string) bool {
	return comfortPattern.MatchString(strings.ToLower(description))
}

// IsHealthy 判断描述是否带有清淡健康系的词。
func IsHealthy(description string) bool {
	return healthyPattern.MatchString(strings.ToLower(description))
}

// ComputeStats 统计目录，空目录返回零值。
func ComputeStats(c *Catalog) Stats {
	s := Stats{
		Cuisines:  map[string]int{},
		Diets:     map[string]int{},
		MealTimes: map[string]int{},
	}
	if c.Len() == 0 {
		return s
	}

	total := 0
	for i, r := range c.Recipes {
		s.Cuisines[r.Cuisine]++
		s.Diets[r.Diet]++
		s.MealTimes[r.MealTime]++
		total += r.CookTime
		if i == 0 || r.CookTime < s.MinCookTime {
			s.MinCookTime = r.CookTime
		}
		if i == 0 || r.CookTime > s.MaxCookTime {
			s.MaxCookTime = r.CookTime
		}
		if IsQuick(r.CookTime) {
			s.QuickRecipes++
		}
		if IsComfort(r.Description) {
			s.ComfortRecipes++
		}
		if IsHealthy(r.Description) {
			s.HealthyRecipes++
		}
	}
	s.TotalRecipes = len(c.Recipes)
	s.AvgCookTime = float64(total) / float64(len(c.Recipes))
	return s
}
