package profile

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/store"
)

var karahi = core.RecipeMeta{Cuisine: core.CuisineDesi, MealTime: core.MealDinner, CookTime: 30}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestManager(t *testing.T) (*Manager, *store.MemoryStore, *clock) {
	t.Helper()
	ms := store.NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	clk := &clock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)}
	return NewManager(Options{Store: ms, Now: clk.Now}), ms, clk
}

func TestRecordFeedback_Polarity(t *testing.T) {
	tests := []struct {
		name         string
		ratings      []int
		wantLiked    bool
		wantDisliked bool
		wantDesi     float64
		wantPatterns int
	}{
		{name: "positive", ratings: []int{5}, wantLiked: true, wantDesi: 0.1, wantPatterns: 1},
		{name: "four is positive", ratings: []int{4}, wantLiked: true, wantDesi: 0.1, wantPatterns: 1},
		{name: "negative", ratings: []int{1}, wantDisliked: true, wantDesi: -0.05},
		{name: "neutral", ratings: []int{3}},
		{name: "like then dislike", ratings: []int{5, 2}, wantDisliked: true, wantDesi: 0.05, wantPatterns: 1},
		{name: "dislike then like", ratings: []int{2, 5}, wantLiked: true, wantDesi: 0.05, wantPatterns: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t)
			for _, r := range tt.ratings {
				if _, err := m.RecordFeedback(context.Background(), "Chicken Karahi", r, []string{"comfort"}, karahi); err != nil {
					t.Fatalf("RecordFeedback(%d) error = %v", r, err)
				}
			}
			p := m.Profile()
			if got := p.IsLiked("Chicken Karahi"); got != tt.wantLiked {
				t.Errorf("liked = %v, want %v", got, tt.wantLiked)
			}
			if got := p.IsDisliked("Chicken Karahi"); got != tt.wantDisliked {
				t.Errorf("disliked = %v, want %v", got, tt.wantDisliked)
			}
			if got := p.CuisinePreferences[core.CuisineDesi]; !almostEqual(got, tt.wantDesi) {
				t.Errorf("Desi affinity = %v, want %v", got, tt.wantDesi)
			}
			if got := len(p.MoodPatterns); got != tt.wantPatterns {
				t.Errorf("mood patterns = %d, want %d", got, tt.wantPatterns)
			}
			if got := len(p.FeedbackHistory); got != len(tt.ratings) {
				t.Errorf("history = %d, want %d", got, len(tt.ratings))
			}
		})
	}
}

func TestRecordFeedback_Idempotent(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := m.RecordFeedback(ctx, "Chicken Karahi", 5, []string{"comfort", "comfort"}, karahi); err != nil {
			t.Fatal(err)
		}
	}
	p := m.Profile()
	if n := countOf(p.LikedRecipes, "Chicken Karahi"); n != 1 {
		t.Errorf("liked contains title %d times, want 1", n)
	}
	if got := p.MoodPatterns["comfort"]; !slices.Equal(got, []string{"Chicken Karahi"}) {
		t.Errorf("mood_patterns[comfort] = %v", got)
	}
}

func TestRecordFeedback_Invariants(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	titles := []string{"Biryani", "Pancakes", "Hummus"}
	metas := []core.RecipeMeta{
		{Cuisine: core.CuisineDesi, MealTime: core.MealLunch, CookTime: 60},
		{Cuisine: core.CuisineWestern, MealTime: core.MealBreakfast, CookTime: 15},
		{Cuisine: core.CuisineArabic, MealTime: core.MealLunch, CookTime: 10},
	}
	for i := 0; i < 90; i++ {
		rating := []int{5, 1, 4, 2, 3}[i%5]
		if _, err := m.RecordFeedback(ctx, titles[i%3], rating, []string{"stress"}, metas[i%3]); err != nil {
			t.Fatal(err)
		}
		p := m.Profile()
		for c, v := range p.CuisinePreferences {
			if v < -1 || v > 1 {
				t.Fatalf("step %d: affinity[%s] = %v out of range", i, c, v)
			}
		}
		for _, title := range p.LikedRecipes {
			if p.IsDisliked(title) {
				t.Fatalf("step %d: %q both liked and disliked", i, title)
			}
		}
	}
}

func TestRecordFeedback_PositiveCapsAtOne(t *testing.T) {
	m, _, _ := newTestManager(t)
	for i := 0; i < 15; i++ {
		if _, err := m.RecordFeedback(context.Background(), "Nihari", 5, nil, karahi); err != nil {
			t.Fatal(err)
		}
	}
	if got := m.Profile().CuisinePreferences[core.CuisineDesi]; got != 1.0 {
		t.Errorf("Desi affinity = %v, want 1.0", got)
	}
}

func TestRecordFeedback_NegativeFloor(t *testing.T) {
	m, _, _ := newTestManager(t)
	for i := 0; i < 15; i++ {
		if _, err := m.RecordFeedback(context.Background(), "Nihari", 1, nil, karahi); err != nil {
			t.Fatal(err)
		}
	}
	if got := m.Profile().CuisinePreferences[core.CuisineDesi]; got != -0.5 {
		t.Errorf("Desi affinity = %v, want -0.5", got)
	}
}

func TestRecordFeedback_UntrackedCuisine(t *testing.T) {
	m, _, _ := newTestManager(t)
	meta := core.RecipeMeta{Cuisine: "Thai", MealTime: core.MealDinner, CookTime: 20}
	if _, err := m.RecordFeedback(context.Background(), "Pad Thai", 5, nil, meta); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Profile().CuisinePreferences["Thai"]; ok {
		t.Error("untracked cuisine should not be added")
	}
}

func TestRecordFeedback_InvalidRating(t *testing.T) {
	m, ms, _ := newTestManager(t)
	for _, rating := range []int{0, 6, -1} {
		_, err := m.RecordFeedback(context.Background(), "Chicken Karahi", rating, nil, karahi)
		if !core.IsInvalidInput(err) {
			t.Errorf("rating %d: err = %v, want INVALID_INPUT", rating, err)
		}
	}
	if got := len(m.Profile().FeedbackHistory); got != 0 {
		t.Errorf("history = %d, want 0", got)
	}
	if ms.Len() != 0 {
		t.Error("invalid rating should not persist")
	}
}

func TestRecordFeedback_HistoryCap(t *testing.T) {
	m, _, _ := newTestManager(t)
	for i := 0; i < 51; i++ {
		if _, err := m.RecordFeedback(context.Background(), fmt.Sprintf("recipe-%02d", i), 3, nil, karahi); err != nil {
			t.Fatal(err)
		}
	}
	h := m.Profile().FeedbackHistory
	if len(h) != 50 {
		t.Fatalf("history = %d, want 50", len(h))
	}
	if h[0].RecipeTitle != "recipe-01" || h[49].RecipeTitle != "recipe-50" {
		t.Errorf("history window = %s..%s, want recipe-01..recipe-50", h[0].RecipeTitle, h[49].RecipeTitle)
	}
}

func TestRecordFeedback_RecordFields(t *testing.T) {
	m, _, clk := newTestManager(t)
	rec, err := m.RecordFeedback(context.Background(), "Chicken Karahi", 5, []string{"comfort"}, karahi)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" {
		t.Error("record id should be set")
	}
	if ts, ok := rec.Time(); !ok || !ts.Equal(clk.now) {
		t.Errorf("timestamp = %q, want %v", rec.Timestamp, clk.now)
	}
	if m.Profile().LastUpdated != rec.Timestamp {
		t.Error("last_updated should match the latest record")
	}
}

func TestPersonalizedBoost(t *testing.T) {
	m, _, clk := newTestManager(t)
	ctx := context.Background()
	if _, err := m.RecordFeedback(ctx, "Chicken Karahi", 5, []string{"comfort"}, karahi); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		recipe *core.Recipe
		want   float64
	}{
		// 0.1*0.3 + 0.5 + 0.1
		{name: "liked", recipe: &core.Recipe{Title: "Chicken Karahi", Cuisine: core.CuisineDesi, MealTime: core.MealDinner}, want: 0.63},
		// 0.1*0.3 + 0.1
		{name: "same cuisine and meal time", recipe: &core.Recipe{Title: "Nihari", Cuisine: core.CuisineDesi, MealTime: core.MealDinner}, want: 0.13},
		{name: "same cuisine other meal", recipe: &core.Recipe{Title: "Halwa Puri", Cuisine: core.CuisineDesi, MealTime: core.MealBreakfast}, want: 0.03},
		{name: "unseen cuisine", recipe: &core.Recipe{Title: "Ramen", Cuisine: "Japanese", MealTime: core.MealLunch}, want: 0},
		{name: "nil recipe", recipe: nil, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.PersonalizedBoost(tt.recipe); !almostEqual(got, tt.want) {
				t.Errorf("PersonalizedBoost() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("liked title bounds", func(t *testing.T) {
		got := m.PersonalizedBoost(&core.Recipe{Title: "Chicken Karahi", Cuisine: core.CuisineDesi, MealTime: core.MealDinner})
		if got < 0.5 || got > 1.0 {
			t.Errorf("boost = %v, want in [0.5, 1.0]", got)
		}
	})

	t.Run("recency window expires", func(t *testing.T) {
		clk.now = clk.now.Add(31 * 24 * time.Hour)
		got := m.PersonalizedBoost(&core.Recipe{Title: "Nihari", Cuisine: core.CuisineDesi, MealTime: core.MealDinner})
		if !almostEqual(got, 0.03) {
			t.Errorf("boost = %v, want 0.03", got)
		}
	})

	t.Run("disliked clamps", func(t *testing.T) {
		if _, err := m.RecordFeedback(ctx, "Liver Fry", 1, nil, karahi); err != nil {
			t.Fatal(err)
		}
		got := m.PersonalizedBoost(&core.Recipe{Title: "Liver Fry", Cuisine: core.CuisineDesi, MealTime: core.MealDinner})
		if got < -1 || got > -0.9 {
			t.Errorf("boost = %v, want about -0.985", got)
		}
	})
}

func TestRecentFeedback_SkipsMalformedTimestamps(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)}
	ms := store.NewMemoryStore()
	defer ms.Close()

	doc := fmt.Sprintf(`{"feedback_history":[
		{"recipe_title":"a","rating":5,"timestamp":%q},
		{"recipe_title":"b","rating":5,"timestamp":"not a date"},
		{"recipe_title":"c","rating":5},
		{"recipe_title":"d","rating":5,"timestamp":%q}
	]}`, core.FormatTimestamp(clk.now.Add(-2*24*time.Hour)), core.FormatTimestamp(clk.now.Add(-40*24*time.Hour)))
	if err := ms.Set(context.Background(), DefaultKey, []byte(doc)); err != nil {
		t.Fatal(err)
	}

	m := NewManager(Options{Store: ms, Now: clk.Now})
	if err := m.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := m.RecentFeedback(30)
	if len(got) != 1 || got[0].RecipeTitle != "a" {
		t.Errorf("RecentFeedback(30) = %+v, want only a", got)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		wantErr     bool
		wantLiked   []string
		wantDesi    float64
		wantArabic  bool
		wantCreated string
	}{
		{name: "missing", wantLiked: []string{}, wantArabic: true},
		{
			name:        "merge keeps defaults for absent fields",
			doc:         `{"liked_recipes":["Biryani"],"creation_date":"2026-01-01T08:00:00"}`,
			wantLiked:   []string{"Biryani"},
			wantArabic:  true,
			wantCreated: "2026-01-01T08:00:00",
		},
		{
			name:      "stored preferences override",
			doc:       `{"cuisine_preferences":{"Desi":1.7}}`,
			wantLiked: []string{},
			wantDesi:  1.7,
		},
		{name: "corrupt", doc: `{"liked_recipes":`, wantErr: true, wantLiked: []string{}, wantArabic: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ms, _ := newTestManager(t)
			if tt.doc != "" {
				if err := ms.Set(context.Background(), DefaultKey, []byte(tt.doc)); err != nil {
					t.Fatal(err)
				}
			}
			err := m.Load(context.Background())
			if tt.wantErr {
				if !core.IsPersistence(err) {
					t.Fatalf("Load() error = %v, want PERSISTENCE", err)
				}
			} else if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			p := m.Profile()
			if !slices.Equal(p.LikedRecipes, tt.wantLiked) {
				t.Errorf("liked = %v, want %v", p.LikedRecipes, tt.wantLiked)
			}
			if got := p.CuisinePreferences[core.CuisineDesi]; got != tt.wantDesi {
				t.Errorf("Desi = %v, want %v", got, tt.wantDesi)
			}
			if _, ok := p.CuisinePreferences[core.CuisineArabic]; ok != tt.wantArabic {
				t.Errorf("Arabic tracked = %v, want %v", ok, tt.wantArabic)
			}
			if tt.wantCreated != "" && p.CreationDate != tt.wantCreated {
				t.Errorf("creation_date = %q, want %q", p.CreationDate, tt.wantCreated)
			}
		})
	}
}

func TestLoad_OutOfRangeAffinity(t *testing.T) {
	const stored = `{"cuisine_preferences":{"Desi":1.7,"Western":-3}}`
	tests := []struct {
		name        string
		rating      int
		cuisine     string
		wantDesi    float64
		wantWestern float64
	}{
		{name: "neutral rating keeps loaded values", rating: 3, cuisine: core.CuisineWestern, wantDesi: 1.7, wantWestern: -3},
		{name: "positive clamps adjusted cuisine", rating: 5, cuisine: core.CuisineWestern, wantDesi: 1.7, wantWestern: -1},
		{name: "negative clamps adjusted cuisine", rating: 1, cuisine: core.CuisineDesi, wantDesi: 1, wantWestern: -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ms, _ := newTestManager(t)
			ctx := context.Background()
			if err := ms.Set(ctx, DefaultKey, []byte(stored)); err != nil {
				t.Fatal(err)
			}
			if err := m.Load(ctx); err != nil {
				t.Fatal(err)
			}
			if _, err := m.RecordFeedback(ctx, "Pancakes", tt.rating, nil, core.RecipeMeta{Cuisine: tt.cuisine}); err != nil {
				t.Fatal(err)
			}
			p := m.Profile()
			if got := p.CuisinePreferences[core.CuisineDesi]; got != tt.wantDesi {
				t.Errorf("Desi = %v, want %v", got, tt.wantDesi)
			}
			if got := p.CuisinePreferences[core.CuisineWestern]; got != tt.wantWestern {
				t.Errorf("Western = %v, want %v", got, tt.wantWestern)
			}
			if n := len(p.FeedbackHistory); n != 1 {
				t.Errorf("history len = %d, want 1", n)
			}
		})
	}
}

func TestPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	m := NewManager(Options{Store: fs})
	if _, err := m.RecordFeedback(ctx, "Chicken Karahi", 5, []string{"comfort"}, karahi); err != nil {
		t.Fatal(err)
	}

	reloaded := NewManager(Options{Store: fs})
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	p := reloaded.Profile()
	if !p.IsLiked("Chicken Karahi") || len(p.FeedbackHistory) != 1 {
		t.Errorf("reloaded profile = %+v", p)
	}

	if err := reloaded.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Get(ctx, DefaultKey); !core.IsStoreNotFound(err) {
		t.Errorf("after reset Get() err = %v, want not found", err)
	}
	if len(reloaded.Profile().LikedRecipes) != 0 {
		t.Error("reset should restore defaults")
	}
}

type failingStore struct{ core.Store }

func (failingStore) Name() string { return "failing" }

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, core.ErrStoreNotFound }

func (failingStore) Set(context.Context, string, []byte, ...int) error {
	return errors.New("disk full")
}

func TestRecordFeedback_PersistenceFailure(t *testing.T) {
	m := NewManager(Options{Store: failingStore{}})
	_, err := m.RecordFeedback(context.Background(), "Chicken Karahi", 5, nil, karahi)
	if !core.IsPersistence(err) {
		t.Fatalf("err = %v, want PERSISTENCE", err)
	}
	if !m.Profile().IsLiked("Chicken Karahi") {
		t.Error("in-memory state should survive a failed write")
	}
}

func TestSummary(t *testing.T) {
	m, _, clk := newTestManager(t)
	ctx := context.Background()

	s := m.Summary()
	if s.FavoriteCuisine != core.CuisineDesi {
		t.Errorf("tie favorite = %q, want first tracked cuisine", s.FavoriteCuisine)
	}

	if _, err := m.RecordFeedback(ctx, "Hummus", 5, []string{"healthy"}, core.RecipeMeta{Cuisine: core.CuisineArabic, MealTime: core.MealLunch}); err != nil {
		t.Fatal(err)
	}
	clk.now = clk.now.Add(10 * 24 * time.Hour)
	if _, err := m.RecordFeedback(ctx, "Pancakes", 1, nil, core.RecipeMeta{Cuisine: core.CuisineWestern, MealTime: core.MealBreakfast}); err != nil {
		t.Fatal(err)
	}

	s = m.Summary()
	want := Summary{
		TotalFeedback:   2,
		LikedRecipes:    1,
		DislikedRecipes: 1,
		FavoriteCuisine: core.CuisineArabic,
		RecentActivity:  1,
		MoodPatterns:    1,
		ProfileAgeDays:  10,
	}
	s.CuisineScores = nil
	if !reflect.DeepEqual(s, want) {
		t.Errorf("Summary() = %+v, want %+v", s, want)
	}
}

func TestSummary_NoCuisines(t *testing.T) {
	m, ms, _ := newTestManager(t)
	if err := ms.Set(context.Background(), DefaultKey, []byte(`{"cuisine_preferences":{},"creation_date":"garbage"}`)); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := m.Summary()
	if s.FavoriteCuisine != "None" || s.ProfileAgeDays != 0 {
		t.Errorf("Summary() = %+v", s)
	}
}

func countOf(list []string, v string) int {
	n := 0
	for _, s := range list {
		if s == v {
			n++
		}
	}
	return n
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
