package mood

import (
	"strings"

	"github.com/rushteam/moodmeal/pkg/utils"
)

// SentimentEstimator 把原始文本映射为 [-1, 1] 的极性分。
type SentimentEstimator interface {
	Polarity(text string) float64
}

// LexiconSentiment 是基于词典的极性估计：
//   - 每个极性词贡献其词典分
//   - 紧邻的强调词（very、really...）放大下一个极性词
//   - 否定词（not、never、n't...）在 3 个词内翻转下一个极性词并乘 0.5
//   - 结果为极性词得分均值，截断到 [-1, 1]；无极性词时为 0
type LexiconSentiment struct {
	Lexicon     map[string]float64
	Intensifier map[string]float64
	Negators    map[string]struct{}
}

// NewLexiconSentiment 使用内置英文词典。
func NewLexiconSentiment() *LexiconSentiment {
	return &LexiconSentiment{
		Lexicon:     defaultLexicon(),
		Intensifier: defaultIntensifiers(),
		Negators: map[string]struct{}{
			"not": {}, "no": {}, "never": {}, "don't": {}, "isn't": {}, "aren't": {},
			"wasn't": {}, "can't": {}, "cannot": {}, "didn't": {}, "won't": {}, "without": {},
		},
	}
}

func (s *LexiconSentiment) Polarity(text string) float64 {
	tokens := utils.Tokenize(text)
	var (
		sum       float64
		count     int
		boost     = 1.0
		negateFor = 0
	)
	for _, tok := range tokens {
		if _, ok := s.Negators[tok]; ok || strings.HasSuffix(tok, "n't") {
			negateFor = 3
			continue
		}
		if m, ok := s.Intensifier[tok]; ok {
			boost *= m
			continue
		}
		score, ok := s.Lexicon[tok]
		if !ok {
			if negateFor > 0 {
				negateFor--
			}
			boost = 1
			continue
		}
		score *= boost
		if negateFor > 0 {
			score *= -0.5
		}
		sum += clamp(score)
		count++
		boost = 1
		negateFor = 0
	}
	if count == 0 {
		return 0
	}
	return clamp(sum / float64(count))
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

func defaultIntensifiers() map[string]float64 {
	return map[string]float64{
		"very": 1.3, "really": 1.2, "extremely": 1.5, "super": 1.3, "so": 1.2,
		"totally": 1.4, "completely": 1.5, "quite": 1.1, "incredibly": 1.5,
		"slightly": 0.6, "somewhat": 0.7, "bit": 0.7, "little": 0.7,
	}
}

func defaultLexicon() map[string]float64 {
	return map[string]float64{
		// positive
		"happy": 0.8, "great": 0.8, "good": 0.7, "wonderful": 1.0, "amazing": 0.6,
		"awesome": 1.0, "excellent": 1.0, "fantastic": 0.4, "love": 0.5, "lovely": 0.5,
		"excited": 0.4, "energetic": 0.4, "motivated": 0.4, "enthusiastic": 0.5,
		"vibrant": 0.4, "peaceful": 0.4, "relaxed": 0.4, "calm": 0.3, "serene": 0.4,
		"glad": 0.5, "cheerful": 0.6, "joyful": 0.8, "fun": 0.3, "nice": 0.6,
		"celebratory": 0.5, "festive": 0.5, "fresh": 0.3, "healthy": 0.5, "warm": 0.6,
		"cozy": 0.5, "comforting": 0.4, "pumped": 0.4, "content": 0.3, "proud": 0.8,
		"grateful": 0.6, "best": 1.0, "better": 0.5, "delicious": 1.0, "tasty": 0.5,
		// negative
		"sad": -0.5, "tired": -0.4, "exhausted": -0.4, "stressed": -0.5, "anxious": -0.4,
		"overwhelmed": -0.5, "lonely": -0.5, "homesick": -0.3, "awful": -1.0,
		"terrible": -1.0, "bad": -0.7, "horrible": -1.0, "angry": -0.5, "upset": -0.5,
		"depressed": -0.8, "miserable": -0.9, "frustrated": -0.6, "annoyed": -0.5,
		"worried": -0.4, "tense": -0.3, "hectic": -0.2, "rushed": -0.2, "bored": -0.5,
		"sick": -0.7, "hungry": -0.1, "melancholy": -0.4, "down": -0.2, "blue": -0.1,
		"worst": -1.0, "worse": -0.4, "hate": -0.8, "long": -0.05, "busy": -0.1,
		"frazzled": -0.5, "drained": -0.5, "cold": -0.3,
	}
}
