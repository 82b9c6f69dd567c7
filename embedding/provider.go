package embedding

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/moodmeal/core"
)

// Weights 是增强嵌入各部分的权重。
type Weights struct {
	Text     float64 `json:"text" yaml:"text" koanf:"text" validate:"gte=0,lte=1"`
	Cuisine  float64 `json:"cuisine" yaml:"cuisine" koanf:"cuisine" validate:"gte=0,lte=1"`
	Time     float64 `json:"time" yaml:"time" koanf:"time" validate:"gte=0,lte=1"`
	Duration float64 `json:"duration" yaml:"duration" koanf:"duration" validate:"gte=0,lte=1"`
}

// DefaultWeights 返回 0.7 / 0.2 / 0.1 / 0.1。
func DefaultWeights() Weights {
	return Weights{Text: 0.7, Cuisine: 0.2, Time: 0.1, Duration: 0.1}
}

// DefaultCuisineVectors 返回菜系特征表。
func DefaultCuisineVectors() map[string][]float64 {
	return map[string][]float64{
		core.CuisineDesi:    {0.8, 0.6, 0.9},
		core.CuisineArabic:  {0.7, 0.5, 0.8},
		core.CuisineWestern: {0.5, 0.3, 0.6},
	}
}

// DefaultTimeVectors 返回餐次特征表。
func DefaultTimeVectors() map[string][]float64 {
	return map[string][]float64{
		core.MealBreakfast: {0.6, 0.8, 0.4},
		core.MealLunch:     {0.7, 0.6, 0.8},
		core.MealDinner:    {0.9, 0.4, 0.7},
	}
}

// NeutralVector 是未知菜系/餐次使用的中性特征。
func NeutralVector() []float64 { return []float64{0.5, 0.5, 0.5} }

// Options 配置 Provider。零值字段使用默认值。
type Options struct {
	CacheSize      int
	Weights        *Weights
	CuisineVectors map[string][]float64
	TimeVectors    map[string][]float64
	Neutral        []float64

	// DurationScale 是时长归一化分母（分钟），默认 60
	DurationScale float64

	// OnCache 在每次查询缓存后回调，hit 表示命中
	OnCache func(hit bool)
}

// Stats 是缓存统计。
type Stats struct {
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
}

// Provider 给 Embedder 加一层按原文记忆的 LRU 缓存，并组合增强嵌入。
//
// 缓存查找与写入在同一把锁下完成；并发的相同文本通过 singleflight 合并为一次计算。
// 返回的向量都是副本，调用方修改不会污染缓存。
type Provider struct {
	embedder core.Embedder

	mu    sync.Mutex
	cache *lru.Cache
	group singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64

	capacity      int
	weights       Weights
	cuisines      map[string][]float64
	times         map[string][]float64
	neutral       []float64
	durationScale float64
	onCache       func(bool)
}

// NewProvider 创建 Provider。CacheSize <= 0 时使用 100。
func NewProvider(embedder core.Embedder, opts Options) *Provider {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	w := DefaultWeights()
	if opts.Weights != nil {
		w = *opts.Weights
	}
	if opts.CuisineVectors == nil {
		opts.CuisineVectors = DefaultCuisineVectors()
	}
	if opts.TimeVectors == nil {
		opts.TimeVectors = DefaultTimeVectors()
	}
	if len(opts.Neutral) == 0 {
		opts.Neutral = NeutralVector()
	}
	if opts.DurationScale <= 0 {
		opts.DurationScale = 60
	}
	return &Provider{
		embedder:      embedder,
		cache:         lru.New(opts.CacheSize),
		capacity:      opts.CacheSize,
		weights:       w,
		cuisines:      opts.CuisineVectors,
		times:         opts.TimeVectors,
		neutral:       opts.Neutral,
		durationScale: opts.DurationScale,
		onCache:       opts.OnCache,
	}
}

// Name 返回底层 Embedder 名称。
func (p *Provider) Name() string { return p.embedder.Name() }

// Dimension 返回文本向量维度 D。
func (p *Provider) Dimension() int { return p.embedder.Dimension() }

// EnhancedDimension 返回增强向量维度 D + 菜系维度 + 餐次维度 + 1。
func (p *Provider) EnhancedDimension() int {
	return p.Dimension() + 2*len(p.neutral) + 1
}

// Weights 返回当前权重。
func (p *Provider) Weights() Weights { return p.weights }

// Embed 返回文本向量（长度 D）。空串是合法输入。
func (p *Provider) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := p.lookup(text); ok {
		p.record(true)
		return slices.Clone(v), nil
	}

	res, err, _ := p.group.Do(text, func() (any, error) {
		if v, ok := p.lookup(text); ok {
			return v, nil
		}
		v, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		if d := p.embedder.Dimension(); d > 0 && len(v) != d {
			v = Pad(v, d)
		}
		p.mu.Lock()
		p.cache.Add(text, v)
		p.mu.Unlock()
		return v, nil
	})
	p.record(false)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable, "embed text", err)
	}
	return slices.Clone(res.([]float64)), nil
}

func (p *Provider) lookup(text string) ([]float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.cache.Get(text)
	if !ok {
		return nil, false
	}
	return v.([]float64), true
}

func (p *Provider) record(hit bool) {
	if hit {
		p.hits.Add(1)
	} else {
		p.misses.Add(1)
	}
	if p.onCache != nil {
		p.onCache(hit)
	}
}

// EnhancedEmbed 组合增强向量：
//
//	w_text·embed(description) ⧺ w_cuisine·cuisineVector ⧺ w_time·timeVector ⧺ [w_duration·min(cookTime/60, 1)]
//
// 未知菜系或餐次退化为中性向量，不报错。
func (p *Provider) EnhancedEmbed(ctx context.Context, description, cuisine, mealTime string, cookTime int) ([]float64, error) {
	text, err := p.Embed(ctx, description)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, p.EnhancedDimension())
	out = appendScaled(out, text, p.weights.Text)
	out = appendScaled(out, p.feature(p.cuisines, cuisine), p.weights.Cuisine)
	out = appendScaled(out, p.feature(p.times, mealTime), p.weights.Time)
	out = append(out, p.weights.Duration*p.duration(cookTime))
	return out, nil
}

// RecipeVector 按 enhanced 开关返回菜谱向量。
func (p *Provider) RecipeVector(ctx context.Context, r *core.Recipe, enhanced bool) ([]float64, error) {
	if enhanced {
		return p.EnhancedEmbed(ctx, r.Description, r.Cuisine, r.MealTime, r.CookTime)
	}
	return p.Embed(ctx, r.Description)
}

func (p *Provider) feature(table map[string][]float64, key string) []float64 {
	if v, ok := table[key]; ok {
		return Pad(v, len(p.neutral))
	}
	return p.neutral
}

func (p *Provider) duration(cookTime int) float64 {
	d := float64(cookTime) / p.durationScale
	switch {
	case d > 1:
		return 1
	case d < 0:
		return 0
	}
	return d
}

// Stats 返回缓存统计。
func (p *Provider) Stats() Stats {
	p.mu.Lock()
	size := p.cache.Len()
	p.mu.Unlock()
	return Stats{
		Hits:     p.hits.Load(),
		Misses:   p.misses.Load(),
		Size:     size,
		Capacity: p.capacity,
	}
}

// Purge 清空缓存（统计保留）。
func (p *Provider) Purge() {
	p.mu.Lock()
	p.cache = lru.New(p.capacity)
	p.mu.Unlock()
}
