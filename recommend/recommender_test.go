package recommend

import (
	"context"
	"math"
	"slices"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/moodmeal/catalog"
	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/embedding"
	"github.com/rushteam/moodmeal/metrics"
	"github.com/rushteam/moodmeal/pipeline"
	"github.com/rushteam/moodmeal/profile"
	"github.com/rushteam/moodmeal/store"
)

func scenarioCatalog() *catalog.Catalog {
	return catalog.New([]*core.Recipe{
		{Title: "Daal Chawal", Description: "soothing lentils and rice for a tired evening", Cuisine: "Desi", Diet: "veg", MealTime: "Dinner", CookTime: 35},
		{Title: "Chicken Karahi", Description: "spicy chicken curry to melt away stress", Cuisine: "Desi", Diet: "non-veg", MealTime: "Dinner", CookTime: 30},
		{Title: "Aloo Gobi", Description: "simple potato and cauliflower", Cuisine: "Desi", Diet: "veg", MealTime: "Dinner", CookTime: 25},
		{Title: "Mac and Cheese", Description: "cheesy comfort when stressed and tired", Cuisine: "Western", Diet: "veg", MealTime: "Dinner", CookTime: 35},
		{Title: "Caesar Salad", Description: "crisp romaine with parmesan", Cuisine: "Western", Diet: "veg", MealTime: "Dinner", CookTime: 15},
		{Title: "Tomato Soup", Description: "warm tomato soup", Cuisine: "Western", Diet: "veg", MealTime: "Dinner", CookTime: 20},
	})
}

func newRecommender(t *testing.T, opts Options) *Recommender {
	t.Helper()
	if opts.Vectors == nil {
		opts.Vectors = embedding.NewProvider(embedding.NewHashingEmbedder(embedding.DefaultDimension), embedding.Options{})
	}
	if opts.Profiles == nil {
		ms := store.NewMemoryStore()
		t.Cleanup(func() { _ = ms.Close() })
		opts.Profiles = profile.NewManager(profile.Options{Store: ms})
	}
	r, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func titles(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Recipe.Title
	}
	return out
}

func TestRecommend_StressedAndTired(t *testing.T) {
	for _, enhanced := range []bool{false, true} {
		name := "plain"
		if enhanced {
			name = "enhanced"
		}
		t.Run(name, func(t *testing.T) {
			r := newRecommender(t, Options{})
			res, err := r.Recommend(context.Background(), scenarioCatalog(), Request{
				MoodText:    "I'm stressed and tired",
				Constraints: core.Constraints{Diet: "Any", Cuisine: "All"},
				UseEnhanced: enhanced,
			})
			if err != nil {
				t.Fatal(err)
			}
			for _, tag := range []string{"stress", "comfort"} {
				if !slices.Contains(res.Tags, tag) {
					t.Errorf("tags = %v, want %s", res.Tags, tag)
				}
			}
			if n := len(res.Recommendations); n == 0 || n > 3 {
				t.Fatalf("got %d recommendations, want 1..3", n)
			}
			perCuisine := map[string]int{}
			for i, rec := range res.Recommendations {
				if rec.Similarity < -1 || rec.Similarity > 1 {
					t.Errorf("%s similarity %v out of range", rec.Recipe.Title, rec.Similarity)
				}
				if rec.FinalScore != rec.Similarity {
					t.Errorf("learning off: final %v != similarity %v", rec.FinalScore, rec.Similarity)
				}
				if i > 0 && rec.FinalScore > res.Recommendations[i-1].FinalScore {
					t.Errorf("results not sorted: %v", titles(res.Recommendations))
				}
				perCuisine[rec.Recipe.Cuisine]++
			}
			for c, n := range perCuisine {
				if n > 2 {
					t.Errorf("%d %s recipes, want <= 2", n, c)
				}
			}
			if res.Recommendations[0].Recipe.Title != "Mac and Cheese" {
				t.Errorf("top = %s, want Mac and Cheese", res.Recommendations[0].Recipe.Title)
			}
		})
	}
}

func TestRecommend_Degraded(t *testing.T) {
	tests := []struct {
		name        string
		cat         *catalog.Catalog
		req         Request
		wantWarning string
	}{
		{name: "empty mood", cat: scenarioCatalog(), req: Request{MoodText: ""}, wantWarning: WarnEmptyMood},
		{name: "blank mood", cat: scenarioCatalog(), req: Request{MoodText: "   "}, wantWarning: WarnEmptyMood},
		{name: "empty catalog", cat: catalog.New(nil), req: Request{MoodText: "happy"}, wantWarning: WarnEmptyCatalog},
		{name: "nil catalog", cat: nil, req: Request{MoodText: "happy"}, wantWarning: WarnEmptyCatalog},
		{name: "no matches", cat: scenarioCatalog(), req: Request{MoodText: "happy", Constraints: core.Constraints{Cuisine: "Arabic"}}, wantWarning: WarnNoMatches},
		{name: "bad expression", cat: scenarioCatalog(), req: Request{MoodText: "happy", Constraints: core.Constraints{Expr: "recipe.cook_time <"}}, wantWarning: "ignoring filter expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecommender(t, Options{Metrics: metrics.New()})
			res, err := r.Recommend(context.Background(), tt.cat, tt.req)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			found := false
			for _, w := range res.Warnings {
				if strings.Contains(w, tt.wantWarning) {
					found = true
				}
			}
			if !found {
				t.Errorf("warnings = %v, want %q", res.Warnings, tt.wantWarning)
			}
			if res.Recommendations == nil {
				t.Error("recommendations should be an empty slice, not nil")
			}
		})
	}
}

func TestRecommend_Constraints(t *testing.T) {
	r := newRecommender(t, Options{})
	res, err := r.Recommend(context.Background(), scenarioCatalog(), Request{
		MoodText:    "I'm tired",
		Constraints: core.Constraints{Diet: "veg", MaxCookTime: 25, Expr: `recipe.cuisine == "Western"`},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := titles(res.Recommendations)
	sort.Strings(got)
	if want := []string{"Caesar Salad", "Tomato Soup"}; !slices.Equal(got, want) {
		t.Errorf("titles = %v, want %v", got, want)
	}
}

func TestRecommend_LearningBoost(t *testing.T) {
	r := newRecommender(t, Options{ExcludeDisliked: true})
	ctx := context.Background()
	cat := scenarioCatalog()
	aloo, _ := cat.Find("Aloo Gobi")
	mac, _ := cat.Find("Mac and Cheese")

	for i := 0; i < 10; i++ {
		if _, err := r.RecordFeedback(ctx, aloo, 5, []string{"comfort"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.RecordFeedback(ctx, mac, 1, nil); err != nil {
		t.Fatal(err)
	}

	res, err := r.Recommend(ctx, cat, Request{MoodText: "I'm stressed and tired", LearningEnabled: true})
	if err != nil {
		t.Fatal(err)
	}
	got := titles(res.Recommendations)
	if slices.Contains(got, "Mac and Cheese") {
		t.Errorf("disliked recipe recommended: %v", got)
	}
	if len(got) == 0 || res.Recommendations[0].Recipe.Cuisine != "Desi" {
		t.Fatalf("top = %v, want a Desi recipe after learning", got)
	}
	top := res.Recommendations[0]
	if math.Abs(top.CuisineBoost-1) > 1e-9 || math.Abs(top.FinalScore-(top.Similarity+top.CuisineBoost)) > 1e-9 {
		t.Errorf("top = %+v, want boost 1.0 added to similarity", top)
	}

	off, err := r.Recommend(ctx, cat, Request{MoodText: "I'm stressed and tired", LearningEnabled: false})
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range off.Recommendations {
		if rec.CuisineBoost != 0 {
			t.Errorf("learning off: %s has boost %v", rec.Recipe.Title, rec.CuisineBoost)
		}
	}
}

func TestRecommend_Canceled(t *testing.T) {
	r := newRecommender(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Recommend(ctx, scenarioCatalog(), Request{MoodText: "happy"}); err == nil {
		t.Error("expected context error")
	}
}

func TestRecordFeedback(t *testing.T) {
	r := newRecommender(t, Options{})
	ctx := context.Background()
	karahi := &core.Recipe{Title: "Chicken Karahi", Cuisine: "Desi", MealTime: "Dinner", CookTime: 30}

	if _, err := r.RecordFeedback(ctx, karahi, 9, nil); !core.IsInvalidInput(err) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
	if _, err := r.RecordFeedback(ctx, nil, 5, nil); !core.IsInvalidInput(err) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
	if _, err := r.RecordFeedback(ctx, karahi, 5, []string{"comfort"}); err != nil {
		t.Fatal(err)
	}
	boost := r.Profiles().PersonalizedBoost(karahi)
	if boost < 0.5 || boost > 1.0 {
		t.Errorf("PersonalizedBoost = %v, want in [0.5, 1]", boost)
	}
}

func TestNew_SharedPipeline(t *testing.T) {
	var calls int
	vectors := embedding.NewProvider(embedding.NewHashingEmbedder(embedding.DefaultDimension), embedding.Options{})
	shared := DefaultPipeline(Options{Vectors: vectors, CandidatePool: 6, MaxResults: 3, MaxSameCuisine: 2})
	shared.Hooks = []pipeline.Hook{func(pipeline.Node, int, int, time.Duration, error) { calls++ }}

	a := newRecommender(t, Options{Vectors: vectors, Pipeline: shared})
	b := newRecommender(t, Options{Vectors: vectors, Pipeline: shared})
	if len(shared.Hooks) != 1 {
		t.Fatalf("shared hooks = %d, want 1", len(shared.Hooks))
	}

	ctx := context.Background()
	for _, r := range []*Recommender{a, b} {
		if _, err := r.Recommend(ctx, scenarioCatalog(), Request{MoodText: "I'm stressed and tired"}); err != nil {
			t.Fatal(err)
		}
	}
	if want := 2 * len(shared.Nodes); calls != want {
		t.Errorf("hook calls = %d, want %d", calls, want)
	}
}

func TestNew_RequiresVectors(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() without vectors should fail")
	}
}
