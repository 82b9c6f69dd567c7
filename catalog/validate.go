package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate 检查目录的数据完整性，返回可读的问题列表；空列表表示没有发现问题。
// 结果只是提示，是否继续由调用方决定。
func Validate(c *Catalog) []string {
	if c == nil || (len(c.Recipes) == 0 && len(c.Skipped) == 0) {
		return []string{"Dataset is empty"}
	}

	var issues []string
	var missingCols []string
	for _, col := range Columns {
		if !slices.Contains(c.Columns, col) {
			missingCols = append(missingCols, col)
		}
	}
	if len(missingCols) > 0 {
		issues = append(issues, fmt.Sprintf("Missing columns: %v", missingCols))
	}

	missing := map[string]int{}
	for k, v := range c.Missing {
		missing[k] = v
	}
	invalidTimes := 0
	for _, r := range c.Recipes {
		err := validate.Struct(r)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			continue
		}
		for _, fe := range verrs {
			switch fe.Field() {
			case "CookTime":
				invalidTimes++
			case "Title":
				missing["title"]++
			case "MealTime":
				missing["meal_time"]++
			}
		}
	}
	for _, col := range []string{"title", "meal_time", "cook_time"} {
		if missing[col] > 0 {
			issues = append(issues, "Missing values in "+col)
		}
	}
	if invalidTimes > 0 {
		issues = append(issues, fmt.Sprintf("Invalid cook times: %d recipes", invalidTimes))
	}

	seen := make(map[string]struct{}, len(c.Recipes))
	dups := 0
	for _, r := range c.Recipes {
		if _, ok := seen[r.Title]; ok {
			dups++
			continue
		}
		seen[r.Title] = struct{}{}
	}
	if dups > 0 {
		issues = append(issues, fmt.Sprintf("Duplicate recipe titles: %d", dups))
	}
	return issues
}
