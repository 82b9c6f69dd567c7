package core

import "strconv"

// 菜系与餐次的已知取值。菜系集合是开放的，未知值在打分时退化为中性向量。
const (
	CuisineDesi    = "Desi"
	CuisineArabic  = "Arabic"
	CuisineWestern = "Western"
	CuisineUnknown = "Unknown"

	MealBreakfast = "Breakfast"
	MealLunch     = "Lunch"
	MealDinner    = "Dinner"
)

// Recipe 是外部目录提供的只读菜谱。Title 在一个目录内唯一。
type Recipe struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Cuisine     string `json:"cuisine"`
	Diet        string `json:"diet"`
	MealTime    string `json:"meal_time" validate:"required"`
	CookTime    int    `json:"cook_time" validate:"gt=0,lte=300"`
}

// Meta 返回记录反馈时需要的菜谱元信息。
func (r *Recipe) Meta() RecipeMeta {
	return RecipeMeta{Cuisine: r.Cuisine, MealTime: r.MealTime, CookTime: r.CookTime}
}

// ToItem 把菜谱包装为 Pipeline 的承载结构。
// Meta 中的字段供过滤、多样性与 CEL 表达式使用。
func (r *Recipe) ToItem() *Item {
	it := NewItem(r.Title)
	it.Recipe = r
	it.Meta["cuisine"] = r.Cuisine
	it.Meta["meal_time"] = r.MealTime
	it.Meta["diet"] = r.Diet
	it.Meta["cook_time"] = r.CookTime
	return it
}

func (r *Recipe) String() string {
	return r.Title + " (" + r.Cuisine + ", " + r.MealTime + ", " + strconv.Itoa(r.CookTime) + " min)"
}

// RecipeMeta 是一次反馈附带的菜谱属性，会写入反馈历史。
type RecipeMeta struct {
	Cuisine  string `json:"cuisine"`
	MealTime string `json:"meal_time"`
	CookTime int    `json:"cook_time"`
}
