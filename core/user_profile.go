package core

import (
	"slices"
	"strings"
	"time"
)

// UserProfile 是进程内唯一的可变用户画像，也是推荐 Pipeline 的"全局上下文 + 决策信号"。
//
//	维度                 作用
//	liked / disliked    标题级正负反馈，两者互斥
//	cuisine affinity    排序阶段的加性偏置，更新后始终落在 [-1, 1]
//	mood patterns       心情标签 -> 在该心情下喜欢过的菜谱
//	feedback history    FIFO 截断的反馈流水
//
// JSON 字段名与持久化文档保持一致，旧文件可直接加载。
type UserProfile struct {
	LikedRecipes       []string            `json:"liked_recipes"`
	DislikedRecipes    []string            `json:"disliked_recipes"`
	CuisinePreferences map[string]float64  `json:"cuisine_preferences"`
	MoodPatterns       map[string][]string `json:"mood_patterns"`
	FeedbackHistory    []FeedbackRecord    `json:"feedback_history"`
	CreationDate       string              `json:"creation_date"`
	LastUpdated        string              `json:"last_updated"`
}

// FeedbackRecord 是一次评分事件。Timestamp 以 ISO-8601 字符串保存，
// 解析失败的记录在近期统计中被忽略。
type FeedbackRecord struct {
	ID          string   `json:"id,omitempty"`
	RecipeTitle string   `json:"recipe_title"`
	Rating      int      `json:"rating"`
	MoodTags    []string `json:"mood_tags"`
	Timestamp   string   `json:"timestamp"`
	Cuisine     string   `json:"cuisine"`
	MealTime    string   `json:"meal_time"`
	CookTime    int      `json:"cook_time"`
}

// IsPositive 评分 >= 4 视为正反馈。
func (f FeedbackRecord) IsPositive() bool { return f.Rating >= 4 }

// IsNegative 评分 <= 2 视为负反馈。
func (f FeedbackRecord) IsNegative() bool { return f.Rating <= 2 }

// Time 解析时间戳；ok=false 表示缺失或格式错误。
func (f FeedbackRecord) Time() (time.Time, bool) {
	return ParseTimestamp(f.Timestamp)
}

// DefaultCuisines 是新画像默认跟踪的菜系，顺序即 favorite 并列时的优先顺序。
var DefaultCuisines = []string{CuisineDesi, CuisineArabic, CuisineWestern}

// TimestampLayout 是写入画像的时间格式。
const TimestampLayout = "2006-01-02T15:04:05.000000"

var timestampLayouts = []string{
	time.RFC3339Nano,
	TimestampLayout,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatTimestamp 按本地时间输出不带时区的 ISO 时间。
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// ParseTimestamp 宽松解析 ISO 时间，无时区的值按本地时间处理。
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NewUserProfile 创建默认画像：集合为空，跟踪菜系的亲和度为 0。
func NewUserProfile(now time.Time, cuisines ...string) *UserProfile {
	if len(cuisines) == 0 {
		cuisines = DefaultCuisines
	}
	prefs := make(map[string]float64, len(cuisines))
	for _, c := range cuisines {
		prefs[c] = 0
	}
	ts := FormatTimestamp(now)
	return &UserProfile{
		LikedRecipes:       []string{},
		DislikedRecipes:    []string{},
		CuisinePreferences: prefs,
		MoodPatterns:       map[string][]string{},
		FeedbackHistory:    []FeedbackRecord{},
		CreationDate:       ts,
		LastUpdated:        ts,
	}
}

// IsLiked 判断标题是否在喜欢集合中。
func (p *UserProfile) IsLiked(title string) bool {
	return slices.Contains(p.LikedRecipes, title)
}

// IsDisliked 判断标题是否在不喜欢集合中。
func (p *UserProfile) IsDisliked(title string) bool {
	return slices.Contains(p.DislikedRecipes, title)
}

// CuisineAffinity 返回菜系亲和度，未跟踪的菜系为 0。
func (p *UserProfile) CuisineAffinity(cuisine string) float64 {
	if p == nil || p.CuisinePreferences == nil {
		return 0
	}
	return p.CuisinePreferences[cuisine]
}

// Clone 深拷贝画像，供只读快照使用。
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := &UserProfile{
		LikedRecipes:       slices.Clone(p.LikedRecipes),
		DislikedRecipes:    slices.Clone(p.DislikedRecipes),
		CuisinePreferences: make(map[string]float64, len(p.CuisinePreferences)),
		MoodPatterns:       make(map[string][]string, len(p.MoodPatterns)),
		FeedbackHistory:    make([]FeedbackRecord, len(p.FeedbackHistory)),
		CreationDate:       p.CreationDate,
		LastUpdated:        p.LastUpdated,
	}
	for k, v := range p.CuisinePreferences {
		out.CuisinePreferences[k] = v
	}
	for k, v := range p.MoodPatterns {
		out.MoodPatterns[k] = slices.Clone(v)
	}
	for i, f := range p.FeedbackHistory {
		f.MoodTags = slices.Clone(f.MoodTags)
		out.FeedbackHistory[i] = f
	}
	if out.LikedRecipes == nil {
		out.LikedRecipes = []string{}
	}
	if out.DislikedRecipes == nil {
		out.DislikedRecipes = []string{}
	}
	return out
}
