// Package profile 管理进程内唯一的用户画像：加载、反馈学习、个性化加权与持久化。
package profile

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/pkg/logging"
)

// DefaultKey 是画像在 Store 中的 key，FileStore 下对应 cache/user_profiles.json。
const DefaultKey = "user_profiles"

// Options 配置 Manager，零值字段使用默认值。
type Options struct {
	Store core.Store
	Key   string

	CuisineBoost      float64 // 正反馈的菜系亲和度增量，负反馈减半，默认 0.1
	MaxHistory        int     // 反馈历史上限，默认 50
	RecentDays        int     // PersonalizedBoost 的近期窗口，默认 30
	SummaryRecentDays int     // Summary 中近期活跃的窗口，默认 7
	Cuisines          []string

	// Now 为空时使用 time.Now
	Now func() time.Time
}

// Manager 持有画像并负责所有变更，同一时刻只有一个写入在进行。
type Manager struct {
	opts   Options
	logger zerolog.Logger

	mu      sync.RWMutex
	profile *core.UserProfile
}

// NewManager 创建 Manager，初始画像为默认值；调用 Load 合并持久化状态。
func NewManager(opts Options) *Manager {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.CuisineBoost <= 0 {
		opts.CuisineBoost = 0.1
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 50
	}
	if opts.RecentDays <= 0 {
		opts.RecentDays = 30
	}
	if opts.SummaryRecentDays <= 0 {
		opts.SummaryRecentDays = 7
	}
	if len(opts.Cuisines) == 0 {
		opts.Cuisines = slices.Clone(core.DefaultCuisines)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Manager{
		opts:   opts,
		logger: logging.Component("profile"),
	}
	m.profile = m.defaults()
	return m
}

func (m *Manager) defaults() *core.UserProfile {
	return core.NewUserProfile(m.opts.Now(), m.opts.Cuisines...)
}

// document 是持久化文档的解码形状，指针字段区分"缺失"与"零值"。
type document struct {
	LikedRecipes       *[]string              `json:"liked_recipes"`
	DislikedRecipes    *[]string              `json:"disliked_recipes"`
	CuisinePreferences *map[string]float64    `json:"cuisine_preferences"`
	MoodPatterns       *map[string][]string   `json:"mood_patterns"`
	FeedbackHistory    *[]core.FeedbackRecord `json:"feedback_history"`
	CreationDate       *string                `json:"creation_date"`
	LastUpdated        *string                `json:"last_updated"`
}

// Load 把持久化状态合并进默认画像：存在的字段覆盖默认值，缺失字段保持默认。
// 不存在不是错误；内容损坏或后端不可用时保留默认画像，并返回 PERSISTENCE 错误供调用方告警。
func (m *Manager) Load(ctx context.Context) error {
	if m.opts.Store == nil {
		return nil
	}
	data, err := m.opts.Store.Get(ctx, m.opts.Key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil
		}
		m.logger.Warn().Err(err).Str("key", m.opts.Key).Msg("could not load saved profile")
		return core.WrapDomainError(core.ModuleProfile, core.ErrorCodePersistence, "could not load saved profile", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		m.logger.Warn().Err(err).Str("key", m.opts.Key).Msg("saved profile is corrupt, using defaults")
		return core.WrapDomainError(core.ModuleProfile, core.ErrorCodePersistence, "could not load saved profile", err)
	}

	p := m.defaults()
	if doc.LikedRecipes != nil && *doc.LikedRecipes != nil {
		p.LikedRecipes = *doc.LikedRecipes
	}
	if doc.DislikedRecipes != nil && *doc.DislikedRecipes != nil {
		p.DislikedRecipes = *doc.DislikedRecipes
	}
	if doc.CuisinePreferences != nil && *doc.CuisinePreferences != nil {
		p.CuisinePreferences = *doc.CuisinePreferences
	}
	if doc.MoodPatterns != nil && *doc.MoodPatterns != nil {
		p.MoodPatterns = *doc.MoodPatterns
	}
	if doc.FeedbackHistory != nil && *doc.FeedbackHistory != nil {
		p.FeedbackHistory = *doc.FeedbackHistory
	}
	if doc.CreationDate != nil {
		p.CreationDate = *doc.CreationDate
	}
	if doc.LastUpdated != nil {
		p.LastUpdated = *doc.LastUpdated
	}

	m.mu.Lock()
	m.profile = p
	m.mu.Unlock()

	m.logger.Debug().Str("key", m.opts.Key).Int("feedback", len(p.FeedbackHistory)).Msg("profile loaded")
	return nil
}

// Profile 返回画像的深拷贝快照。
func (m *Manager) Profile() *core.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile.Clone()
}

// RecordFeedback 记录一次 1-5 分的评分并更新画像：
//
//	>= 4  加入 liked（移出 disliked），菜系亲和度 +boost（上限 1），记录心情 -> 菜谱
//	<= 2  加入 disliked（移出 liked），菜系亲和度 -boost/2（下限 -0.5）
//	== 3  只追加历史
//
// 只有画像已跟踪的菜系会被调整，调整后的值落在 [-1, 1]，其余菜系保持原值。
// 每次调用都会追加历史并持久化；
// 落盘失败时内存状态已生效，返回 PERSISTENCE 错误。
func (m *Manager) RecordFeedback(ctx context.Context, title string, rating int, moodTags []string, meta core.RecipeMeta) (core.FeedbackRecord, error) {
	if rating < 1 || rating > 5 {
		return core.FeedbackRecord{}, core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput, "rating must be between 1 and 5")
	}
	if title == "" {
		return core.FeedbackRecord{}, core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput, "recipe title is required")
	}

	now := m.opts.Now()
	rec := core.FeedbackRecord{
		ID:          uuid.NewString(),
		RecipeTitle: title,
		Rating:      rating,
		MoodTags:    slices.Clone(moodTags),
		Timestamp:   core.FormatTimestamp(now),
		Cuisine:     meta.Cuisine,
		MealTime:    meta.MealTime,
		CookTime:    meta.CookTime,
	}
	if rec.MoodTags == nil {
		rec.MoodTags = []string{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.profile
	p.FeedbackHistory = append(p.FeedbackHistory, rec)
	if n := len(p.FeedbackHistory); n > m.opts.MaxHistory {
		p.FeedbackHistory = slices.Clone(p.FeedbackHistory[n-m.opts.MaxHistory:])
	}

	switch {
	case rec.IsPositive():
		p.LikedRecipes = addUnique(p.LikedRecipes, title)
		p.DislikedRecipes = remove(p.DislikedRecipes, title)
		if cur, ok := p.CuisinePreferences[meta.Cuisine]; ok {
			p.CuisinePreferences[meta.Cuisine] = clamp(math.Min(1.0, cur+m.opts.CuisineBoost))
		}
		if p.MoodPatterns == nil {
			p.MoodPatterns = make(map[string][]string)
		}
		for _, tag := range moodTags {
			p.MoodPatterns[tag] = addUnique(p.MoodPatterns[tag], title)
		}
	case rec.IsNegative():
		p.DislikedRecipes = addUnique(p.DislikedRecipes, title)
		p.LikedRecipes = remove(p.LikedRecipes, title)
		if cur, ok := p.CuisinePreferences[meta.Cuisine]; ok {
			p.CuisinePreferences[meta.Cuisine] = clamp(math.Max(-0.5, cur-m.opts.CuisineBoost*0.5))
		}
	}
	p.LastUpdated = rec.Timestamp

	if err := m.persist(ctx, p); err != nil {
		return rec, err
	}
	return rec, nil
}

// persist 调用方需持有写锁。
func (m *Manager) persist(ctx context.Context, p *core.UserProfile) error {
	if m.opts.Store == nil {
		return nil
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return core.WrapDomainError(core.ModuleProfile, core.ErrorCodePersistence, "could not encode user profile", err)
	}
	if err := m.opts.Store.Set(ctx, m.opts.Key, data); err != nil {
		m.logger.Warn().Err(err).Str("key", m.opts.Key).Str("store", m.opts.Store.Name()).Msg("could not save user profile")
		return core.WrapDomainError(core.ModuleProfile, core.ErrorCodePersistence, "could not save user profile", err)
	}
	return nil
}

// PersonalizedBoost 计算菜谱的个性化加权，结果在 [-1, 1]：
//
//	affinity(cuisine)*0.3 + 0.5(liked) - 1.0(disliked) + 0.1 × 近期同菜系同餐次的正反馈数
//
// 只读，不修改画像。
func (m *Manager) PersonalizedBoost(r *core.Recipe) float64 {
	if r == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.profile

	var boost float64
	if v, ok := p.CuisinePreferences[r.Cuisine]; ok {
		boost += v * 0.3
	}
	if p.IsLiked(r.Title) {
		boost += 0.5
	}
	if p.IsDisliked(r.Title) {
		boost -= 1.0
	}
	for _, f := range m.recent(p, m.opts.RecentDays) {
		if f.IsPositive() && f.Cuisine == r.Cuisine && f.MealTime == r.MealTime {
			boost += 0.1
		}
	}
	return clamp(boost)
}

// RecentFeedback 返回最近 days 天内的反馈，时间戳缺失或无法解析的记录被忽略。
func (m *Manager) RecentFeedback(days int) []core.FeedbackRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recent(m.profile, days)
}

func (m *Manager) recent(p *core.UserProfile, days int) []core.FeedbackRecord {
	cutoff := m.opts.Now().Add(-time.Duration(days) * 24 * time.Hour)
	var out []core.FeedbackRecord
	for _, f := range p.FeedbackHistory {
		ts, ok := f.Time()
		if !ok {
			continue
		}
		if ts.After(cutoff) {
			out = append(out, f)
		}
	}
	return out
}

// Summary 是画像统计。
type Summary struct {
	TotalFeedback   int                `json:"total_feedback"`
	LikedRecipes    int                `json:"liked_recipes"`
	DislikedRecipes int                `json:"disliked_recipes"`
	FavoriteCuisine string             `json:"favorite_cuisine"`
	CuisineScores   map[string]float64 `json:"cuisine_scores"`
	RecentActivity  int                `json:"recent_activity"`
	MoodPatterns    int                `json:"mood_patterns"`
	ProfileAgeDays  int                `json:"profile_age_days"`
}

// Summary 汇总画像。最爱菜系取亲和度最大者，并列时按跟踪菜系的顺序取第一个。
func (m *Manager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := m.profile

	scores := make(map[string]float64, len(p.CuisinePreferences))
	for k, v := range p.CuisinePreferences {
		scores[k] = v
	}
	return Summary{
		TotalFeedback:   len(p.FeedbackHistory),
		LikedRecipes:    len(p.LikedRecipes),
		DislikedRecipes: len(p.DislikedRecipes),
		FavoriteCuisine: m.favorite(p.CuisinePreferences),
		CuisineScores:   scores,
		RecentActivity:  len(m.recent(p, m.opts.SummaryRecentDays)),
		MoodPatterns:    len(p.MoodPatterns),
		ProfileAgeDays:  m.ageDays(p),
	}
}

func (m *Manager) favorite(prefs map[string]float64) string {
	if len(prefs) == 0 {
		return "None"
	}
	order := make([]string, 0, len(prefs))
	for _, c := range m.opts.Cuisines {
		if _, ok := prefs[c]; ok {
			order = append(order, c)
		}
	}
	var extra []string
	for c := range prefs {
		if !slices.Contains(order, c) {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	best := order[0]
	for _, c := range order[1:] {
		if prefs[c] > prefs[best] {
			best = c
		}
	}
	return best
}

func (m *Manager) ageDays(p *core.UserProfile) int {
	created, ok := core.ParseTimestamp(p.CreationDate)
	if !ok {
		return 0
	}
	d := m.opts.Now().Sub(created)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// Reset 恢复默认画像并删除持久化状态。删除失败只记日志。
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.profile = m.defaults()
	m.mu.Unlock()

	if m.opts.Store == nil {
		return nil
	}
	if err := m.opts.Store.Delete(ctx, m.opts.Key); err != nil {
		m.logger.Warn().Err(err).Str("key", m.opts.Key).Msg("could not remove saved profile")
		return core.WrapDomainError(core.ModuleProfile, core.ErrorCodePersistence, "could not remove saved profile", err)
	}
	m.logger.Info().Str("key", m.opts.Key).Msg("profile reset")
	return nil
}

func addUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

func remove(list []string, v string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == v })
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
