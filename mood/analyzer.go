// Package mood 从自由文本中提取情绪标签与情感极性。
package mood

import (
	"fmt"
	"strings"

	"github.com/rushteam/moodmeal/pkg/utils"
)

// TagThresholds 控制情感派生标签：
// < Negative 为 negative，> Positive 为 positive，[NeutralLow, NeutralHigh] 为 neutral。
// 三个区间之间的空隙不产生情感标签。
type TagThresholds struct {
	Negative    float64 `json:"negative" yaml:"negative" koanf:"negative" validate:"gte=-1,lte=0"`
	NeutralLow  float64 `json:"neutral_low" yaml:"neutral_low" koanf:"neutral_low" validate:"gte=-1,lte=0"`
	NeutralHigh float64 `json:"neutral_high" yaml:"neutral_high" koanf:"neutral_high" validate:"gte=0,lte=1"`
	Positive    float64 `json:"positive" yaml:"positive" koanf:"positive" validate:"gte=0,lte=1"`
}

// SummaryThresholds 控制摘要中的情感描述：> Positive 为 positive，< Challenging 为 challenging。
type SummaryThresholds struct {
	Positive    float64 `json:"positive" yaml:"positive" koanf:"positive" validate:"gte=-1,lte=1"`
	Challenging float64 `json:"challenging" yaml:"challenging" koanf:"challenging" validate:"gte=-1,lte=1"`
}

// DefaultTagThresholds 返回 -0.4 / -0.2 / 0.2 / 0.4。
func DefaultTagThresholds() TagThresholds {
	return TagThresholds{Negative: -0.4, NeutralLow: -0.2, NeutralHigh: 0.2, Positive: 0.4}
}

// DefaultSummaryThresholds 返回 0.3 / -0.3。
func DefaultSummaryThresholds() SummaryThresholds {
	return SummaryThresholds{Positive: 0.3, Challenging: -0.3}
}

// Options 配置 Analyzer，零值字段使用默认值。
type Options struct {
	Categories []Category
	Modifiers  []Modifier
	Sentiment  SentimentEstimator
	Tags       *TagThresholds
	Summary    *SummaryThresholds
	MaxTags    int // 默认 5
	Window     int // 关键词前查找修饰词的字符数，默认 20
}

// Analyzer 是关键词 + 极性的情绪分析器，构建后只读，可并发使用。
type Analyzer struct {
	categories []Category
	modifiers  []Modifier
	sentiment  SentimentEstimator
	tags       TagThresholds
	summary    SummaryThresholds
	maxTags    int
	window     int
}

// Analysis 是一次分析的完整结果。
type Analysis struct {
	Tags      []string           `json:"tags"`
	Sentiment float64            `json:"sentiment"`
	Scores    map[string]float64 `json:"scores"` // 命中类别 -> 平均强度
	Summary   string             `json:"summary"`
}

// NewAnalyzer 创建 Analyzer。
func NewAnalyzer(opts Options) *Analyzer {
	a := &Analyzer{
		categories: opts.Categories,
		modifiers:  opts.Modifiers,
		sentiment:  opts.Sentiment,
		tags:       DefaultTagThresholds(),
		summary:    DefaultSummaryThresholds(),
		maxTags:    opts.MaxTags,
		window:     opts.Window,
	}
	if len(a.categories) == 0 {
		a.categories = DefaultCategories()
	}
	if len(a.modifiers) == 0 {
		a.modifiers = DefaultModifiers()
	}
	if a.sentiment == nil {
		a.sentiment = NewLexiconSentiment()
	}
	if opts.Tags != nil {
		a.tags = *opts.Tags
	}
	if opts.Summary != nil {
		a.summary = *opts.Summary
	}
	if a.maxTags <= 0 {
		a.maxTags = 5
	}
	if a.window <= 0 {
		a.window = 20
	}
	return a
}

// ExtractTags 返回至多 MaxTags 个互不相同的标签（按类别定义顺序，情感标签在后）与极性分。
// 空文本返回 (空, 0)。
func (a *Analyzer) ExtractTags(text string) ([]string, float64) {
	res := a.Analyze(text)
	return res.Tags, res.Sentiment
}

// Analyze 返回标签、极性、各类别强度与摘要。
func (a *Analyzer) Analyze(text string) Analysis {
	if text == "" {
		return Analysis{Tags: []string{}, Scores: map[string]float64{}, Summary: a.Summarize(nil, 0)}
	}

	lower := strings.ToLower(text)
	sentiment := clamp(a.sentiment.Polarity(text))

	detected := make([]string, 0, len(a.categories)+1)
	scores := make(map[string]float64)
	for _, cat := range a.categories {
		var total float64
		matches := 0
		for _, kw := range cat.Keywords {
			if kw == "" || !strings.Contains(lower, kw) {
				continue
			}
			matches++
			total += a.intensity(lower, kw)
		}
		if matches > 0 {
			scores[cat.Name] = total / float64(matches)
			detected = append(detected, cat.Name)
		}
	}

	if tag := a.sentimentTag(sentiment); tag != "" {
		detected = append(detected, tag)
	}

	tags := dedup(detected, a.maxTags)
	return Analysis{
		Tags:      tags,
		Sentiment: sentiment,
		Scores:    scores,
		Summary:   a.Summarize(tags, sentiment),
	}
}

// intensity 在关键词首次出现位置之前的 window 个字符里找最强的修饰词，至少为 1。
func (a *Analyzer) intensity(lower, keyword string) float64 {
	pos := strings.Index(lower, keyword)
	if pos < 0 {
		return 1
	}
	before := utils.LastRunes(lower[:pos], a.window)
	best := 1.0
	for _, m := range a.modifiers {
		if m.Phrase != "" && strings.Contains(before, m.Phrase) && m.Multiplier > best {
			best = m.Multiplier
		}
	}
	return best
}

func (a *Analyzer) sentimentTag(s float64) string {
	switch {
	case s < a.tags.Negative:
		return TagNegative
	case s > a.tags.Positive:
		return TagPositive
	case s >= a.tags.NeutralLow && s <= a.tags.NeutralHigh:
		return TagNeutral
	}
	return ""
}

func dedup(tags []string, limit int) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, limit)
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Summarize 生成可读摘要：主标签 + 至多 2 个次要标签 + 情感描述。
func (a *Analyzer) Summarize(tags []string, sentiment float64) string {
	if len(tags) == 0 {
		return "Neutral mood"
	}
	desc := "balanced"
	switch {
	case sentiment > a.summary.Positive:
		desc = "positive"
	case sentiment < a.summary.Challenging:
		desc = "challenging"
	}
	if len(tags) == 1 {
		return fmt.Sprintf("Feeling %s with a %s outlook", tags[0], desc)
	}
	end := 3
	if len(tags) < end {
		end = len(tags)
	}
	return fmt.Sprintf("Primarily %s, also %s - overall %s", tags[0], strings.Join(tags[1:end], ", "), desc)
}
