package mood

// Category 是一个情绪类别及其触发关键词。关键词按子串匹配，可以包含空格。
type Category struct {
	Name     string   `json:"name" yaml:"name" koanf:"name"`
	Keywords []string `json:"keywords" yaml:"keywords" koanf:"keywords"`
}

// Modifier 是出现在关键词前的强度修饰词。
type Modifier struct {
	Phrase     string  `json:"phrase" yaml:"phrase" koanf:"phrase"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier" koanf:"multiplier"`
}

// 情绪标签名。
const (
	TagStress    = "stress"
	TagComfort   = "comfort"
	TagEnergy    = "energy"
	TagCalm      = "calm"
	TagSocial    = "social"
	TagIndulgent = "indulgent"
	TagHealthy   = "healthy"
	TagQuick     = "quick"
	TagCozy      = "cozy"

	TagNegative = "negative"
	TagPositive = "positive"
	TagNeutral  = "neutral"
)

// DefaultCategories 返回 9 个情绪类别。顺序决定标签输出顺序。
func DefaultCategories() []Category {
	return []Category{
		{Name: TagStress, Keywords: []string{"stressed", "overwhelmed", "anxious", "tense", "pressure", "frazzled", "hectic"}},
		{Name: TagComfort, Keywords: []string{"sad", "lonely", "homesick", "tired", "exhausted", "down", "blue", "melancholy"}},
		{Name: TagEnergy, Keywords: []string{"energetic", "excited", "happy", "motivated", "pumped", "enthusiastic", "vibrant"}},
		{Name: TagCalm, Keywords: []string{"peaceful", "relaxed", "zen", "meditative", "serene", "tranquil", "chill"}},
		{Name: TagSocial, Keywords: []string{"celebratory", "party", "friends", "family", "gathering", "festive"}},
		{Name: TagIndulgent, Keywords: []string{"craving", "treat", "indulgent", "guilty pleasure", "comfort food"}},
		{Name: TagHealthy, Keywords: []string{"fresh", "light", "clean", "detox", "healthy", "nutritious"}},
		{Name: TagQuick, Keywords: []string{"rushed", "hurry", "quick", "fast", "busy", "no time"}},
		{Name: TagCozy, Keywords: []string{"cozy", "warm", "comforting", "snuggled", "homey", "intimate"}},
	}
}

// DefaultModifiers 返回强度修饰词表。强度取窗口内命中修饰词的最大值且不低于 1，
// 因此小于 1 的修饰词（slightly 等）不会压低强度。
func DefaultModifiers() []Modifier {
	return []Modifier{
		{Phrase: "very", Multiplier: 1.5},
		{Phrase: "extremely", Multiplier: 2.0},
		{Phrase: "super", Multiplier: 1.7},
		{Phrase: "really", Multiplier: 1.3},
		{Phrase: "quite", Multiplier: 1.2},
		{Phrase: "pretty", Multiplier: 1.1},
		{Phrase: "somewhat", Multiplier: 0.8},
		{Phrase: "slightly", Multiplier: 0.7},
		{Phrase: "a bit", Multiplier: 0.8},
		{Phrase: "a little", Multiplier: 0.7},
		{Phrase: "totally", Multiplier: 1.8},
		{Phrase: "completely", Multiplier: 2.0},
	}
}
