package core

import "github.com/rushteam/moodmeal/pkg/utils"

// Constraints 是调用方给出的硬过滤条件。
// Diet == "Any" 与 Cuisine == "All"（或空串）表示不限。
type Constraints struct {
	Diet        string `json:"diet"`
	MealTime    string `json:"meal_time"`
	MaxCookTime int    `json:"max_cook_time"`
	Cuisine     string `json:"cuisine"`

	// Expr 是可选的 CEL 表达式，对 recipe 变量求值为 true 的候选保留
	Expr string `json:"expr,omitempty"`
}

// RecommendContext 承载一次心情查询的全部上下文，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string

	// 心情分析结果
	MoodText   string
	MoodTags   []string
	Sentiment  float64
	MoodVector []float64

	Constraints Constraints

	// UseEnhanced 为 true 时菜谱向量使用增强嵌入（文本 + 菜系 + 餐次 + 时长）
	UseEnhanced bool

	// LearningEnabled 为 true 且 User 不为空时，排序分数叠加菜系亲和度
	LearningEnabled bool

	// User 是画像快照，只读
	User *UserProfile

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 candidate_pool、max_results
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Personalized 返回排序阶段是否应用画像偏置。
func (rctx *RecommendContext) Personalized() bool {
	return rctx != nil && rctx.LearningEnabled && rctx.User != nil
}
