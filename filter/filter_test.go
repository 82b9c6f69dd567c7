package filter

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/rushteam/moodmeal/core"
)

func recipes() []*core.Recipe {
	return []*core.Recipe{
		{Title: "Chicken Karahi", Cuisine: "Desi", Diet: "non-veg", MealTime: "Dinner", CookTime: 30},
		{Title: "Daal Chawal", Cuisine: "Desi", Diet: "veg", MealTime: "Lunch", CookTime: 35},
		{Title: "Lentil Soup", Description: "warm soup", Cuisine: "Arabic", Diet: "veg", MealTime: "Dinner", CookTime: 30},
		{Title: "Mac and Cheese", Cuisine: "Western", Diet: "veg", MealTime: "Dinner", CookTime: 45},
	}
}

func items() []*core.Item {
	var out []*core.Item
	for _, r := range recipes() {
		out = append(out, r.ToItem())
	}
	return out
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestConstraintFilter(t *testing.T) {
	tests := []struct {
		name string
		c    core.Constraints
		want []string
	}{
		{name: "no constraints", c: core.Constraints{Diet: AnyDiet, Cuisine: AllCuisine}, want: []string{"Chicken Karahi", "Daal Chawal", "Lentil Soup", "Mac and Cheese"}},
		{name: "diet case insensitive", c: core.Constraints{Diet: "VEG"}, want: []string{"Daal Chawal", "Lentil Soup", "Mac and Cheese"}},
		{name: "meal time", c: core.Constraints{MealTime: "dinner"}, want: []string{"Chicken Karahi", "Lentil Soup", "Mac and Cheese"}},
		{name: "max cook time", c: core.Constraints{MaxCookTime: 30}, want: []string{"Chicken Karahi", "Lentil Soup"}},
		{name: "cuisine", c: core.Constraints{Cuisine: "Desi", MealTime: "Dinner"}, want: []string{"Chicken Karahi"}},
		{name: "nothing passes", c: core.Constraints{Cuisine: "Thai"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := NewFilterNode(NewConstraintFilter())
			out, err := node.Process(context.Background(), &core.RecommendContext{Constraints: tt.c}, items())
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !slices.Equal(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExprFilter(t *testing.T) {
	tests := []struct {
		name        string
		static      string
		fromRequest bool
		requestExpr string
		want        []string
	}{
		{name: "static", static: `recipe.cook_time <= 30`, want: []string{"Chicken Karahi", "Lentil Soup"}},
		{name: "request", fromRequest: true, requestExpr: `recipe.cuisine != "Desi"`, want: []string{"Lentil Soup", "Mac and Cheese"}},
		{name: "request ignored when disabled", requestExpr: `false`, want: []string{"Chicken Karahi", "Daal Chawal", "Lentil Soup", "Mac and Cheese"}},
		{name: "both", static: `recipe.meal_time == "Dinner"`, fromRequest: true, requestExpr: `recipe.description.contains("soup")`, want: []string{"Lentil Soup"}},
		{name: "broken request expression keeps items", fromRequest: true, requestExpr: `recipe.calories > 1`, want: []string{"Chicken Karahi", "Daal Chawal", "Lentil Soup", "Mac and Cheese"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewExprFilter(tt.static, tt.fromRequest)
			if err != nil {
				t.Fatal(err)
			}
			rctx := &core.RecommendContext{Constraints: core.Constraints{Expr: tt.requestExpr}}
			out, err := NewFilterNode(f).Process(context.Background(), rctx, items())
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !slices.Equal(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := NewExprFilter("recipe.cook_time <", false); err == nil {
		t.Error("NewExprFilter() should reject invalid expressions")
	}
}

func TestDislikedFilter(t *testing.T) {
	profile := core.NewUserProfile(time.Now())
	profile.DislikedRecipes = []string{"Daal Chawal"}

	tests := []struct {
		name     string
		learning bool
		want     []string
	}{
		{name: "learning on", learning: true, want: []string{"Chicken Karahi", "Lentil Soup", "Mac and Cheese"}},
		{name: "learning off", learning: false, want: []string{"Chicken Karahi", "Daal Chawal", "Lentil Soup", "Mac and Cheese"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := &core.RecommendContext{User: profile, LearningEnabled: tt.learning}
			out, err := NewFilterNode(NewDislikedFilter()).Process(context.Background(), rctx, items())
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !slices.Equal(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterNode_LabelsAndChain(t *testing.T) {
	in := items()
	node := NewFilterNode(NewBlacklistFilter([]string{"Mac and Cheese"}), NewConstraintFilter())
	out, err := node.Process(context.Background(), &core.RecommendContext{Constraints: core.Constraints{MealTime: "Dinner"}}, in)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); !slices.Equal(got, []string{"Chicken Karahi", "Lentil Soup"}) {
		t.Errorf("Process() = %v", got)
	}
	if lbl := in[3].Labels["filtered"]; lbl.Source != "filter.blacklist" {
		t.Errorf("filtered label = %+v, want source filter.blacklist", lbl)
	}
	if lbl := in[1].Labels["filtered"]; lbl.Source != "filter.constraint" {
		t.Errorf("filtered label = %+v, want source filter.constraint", lbl)
	}
}
