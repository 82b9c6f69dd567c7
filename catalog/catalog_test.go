package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rushteam/moodmeal/core"
)

func TestParse(t *testing.T) {
	input := `title,description,diet,meal_time,cook_time,cuisine
Chicken Karahi,Spicy curry,Non-Veg,dinner,30,Desi
Plain Toast,,VEG,BREAKFAST,5,
Broken,row,veg,lunch,abc,Western
No Time,,veg,lunch,,Western

Fries,"crispy, salty",veg,lunch,12.0,Western
`
	c, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	want := []core.Recipe{
		{Title: "Chicken Karahi", Description: "Spicy curry", Diet: "non-veg", MealTime: "Dinner", CookTime: 30, Cuisine: "Desi"},
		{Title: "Plain Toast", Description: "", Diet: "veg", MealTime: "Breakfast", CookTime: 5, Cuisine: "Unknown"},
		{Title: "Fries", Description: "crispy, salty", Diet: "veg", MealTime: "Lunch", CookTime: 12, Cuisine: "Western"},
	}
	for i, w := range want {
		if !reflect.DeepEqual(*c.Recipes[i], w) {
			t.Errorf("recipe[%d] = %+v, want %+v", i, *c.Recipes[i], w)
		}
	}
	if len(c.Skipped) != 2 {
		t.Errorf("Skipped = %v, want 2 rows", c.Skipped)
	}
	if c.Missing["cook_time"] != 1 {
		t.Errorf("Missing[cook_time] = %d, want 1", c.Missing["cook_time"])
	}
	if r, ok := c.Find("Fries"); !ok || r.CookTime != 12 {
		t.Errorf("Find(Fries) = %v, %v", r, ok)
	}
	if _, ok := c.Find("Broken"); ok {
		t.Error("skipped row should not be indexed")
	}
}

func TestParse_Empty(t *testing.T) {
	c, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d", c.Len())
	}
	if got := Validate(c); !reflect.DeepEqual(got, []string{"Dataset is empty"}) {
		t.Errorf("Validate() = %v", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recipes.csv")
	if err := os.WriteFile(path, []byte("title,meal_time,cook_time\nToast,Breakfast,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Len() != 1 || c.Recipes[0].Cuisine != core.CuisineUnknown {
		t.Errorf("Load() = %+v", c.Recipes)
	}

	_, err = Load(filepath.Join(dir, "missing.csv"))
	if !core.IsNotFound(err) {
		t.Errorf("Load(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "clean",
			in:   "title,description,diet,meal_time,cook_time,cuisine\nA,,veg,Lunch,10,Desi\nB,,veg,Dinner,300,Arabic\n",
			want: nil,
		},
		{
			name: "missing columns",
			in:   "title,meal_time,cook_time\nA,Lunch,10\n",
			want: []string{"Missing columns: [description diet cuisine]"},
		},
		{
			name: "missing values and invalid times",
			in:   "title,description,diet,meal_time,cook_time,cuisine\n,,veg,Lunch,10,Desi\nB,,veg,,0,Desi\nC,,veg,Lunch,301,Desi\nD,,veg,Lunch,,Desi\n",
			want: []string{
				"Missing values in title",
				"Missing values in meal_time",
				"Missing values in cook_time",
				"Invalid cook times: 2 recipes",
			},
		},
		{
			name: "duplicates",
			in:   "title,description,diet,meal_time,cook_time,cuisine\nA,,veg,Lunch,10,Desi\nA,,veg,Dinner,20,Desi\nA,,veg,Lunch,30,Desi\n",
			want: []string{"Duplicate recipe titles: 2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(strings.NewReader(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			if got := Validate(c); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Validate() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	c := New([]*core.Recipe{
		{Title: "A", Description: "Warm and cozy", Cuisine: "Desi", Diet: "veg", MealTime: "Dinner", CookTime: 30},
		{Title: "B", Description: "fresh salad", Cuisine: "Desi", Diet: "veg", MealTime: "Lunch", CookTime: 10},
		{Title: "C", Description: "", Cuisine: "Western", Diet: "non-veg", MealTime: "Lunch", CookTime: 50},
	})
	s := ComputeStats(c)
	want := Stats{
		TotalRecipes:   3,
		Cuisines:       map[string]int{"Desi": 2, "Western": 1},
		Diets:          map[string]int{"veg": 2, "non-veg": 1},
		MealTimes:      map[string]int{"Dinner": 1, "Lunch": 2},
		AvgCookTime:    30,
		MinCookTime:    10,
		MaxCookTime:    50,
		QuickRecipes:   1,
		ComfortRecipes: 1,
		HealthyRecipes: 1,
	}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("ComputeStats() = %+v, want %+v", s, want)
	}

	if got := ComputeStats(New(nil)); got.TotalRecipes != 0 || got.AvgCookTime != 0 {
		t.Errorf("empty stats = %+v", got)
	}
}

func TestSample(t *testing.T) {
	c := Sample()
	if c.Len() == 0 {
		t.Fatal("sample catalog is empty")
	}
	if issues := Validate(c); len(issues) != 0 {
		t.Errorf("sample catalog issues: %v", issues)
	}
	s := ComputeStats(c)
	for _, cuisine := range core.DefaultCuisines {
		if s.Cuisines[cuisine] < 3 {
			t.Errorf("sample has %d %s recipes, want >= 3", s.Cuisines[cuisine], cuisine)
		}
	}
}
