// Package recommend 编排一次心情推荐：情绪分析 -> 过滤 -> 相似度排序 -> 多样性截断，
// 以及反馈回写画像。
package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/moodmeal/catalog"
	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/filter"
	"github.com/rushteam/moodmeal/metrics"
	"github.com/rushteam/moodmeal/mood"
	"github.com/rushteam/moodmeal/pipeline"
	"github.com/rushteam/moodmeal/pkg/dsl"
	"github.com/rushteam/moodmeal/pkg/logging"
	"github.com/rushteam/moodmeal/profile"
	"github.com/rushteam/moodmeal/rank"
	"github.com/rushteam/moodmeal/rerank"
)

// 面向调用方的提示文案。
const (
	WarnEmptyMood    = "Please describe your mood first."
	WarnEmptyCatalog = "No recipes available"
	WarnNoMatches    = "No matching meals found. Try adjusting your filters."
)

// Options 配置 Recommender，零值字段使用默认值。
type Options struct {
	Analyzer *mood.Analyzer
	Vectors  rank.VectorSource
	Profiles *profile.Manager // 为空时不做个性化与反馈学习
	Metrics  *metrics.Metrics

	// Pipeline 为空时使用 DefaultPipeline
	Pipeline *pipeline.Pipeline

	CandidatePool   int  // 多样性之前保留的候选数，默认 6
	MaxResults      int  // 默认 3
	MaxSameCuisine  int  // 默认 2
	ExcludeDisliked bool // 学习开启时剔除不喜欢的菜谱
}

// Request 是一次推荐请求。
type Request struct {
	UserID          string           `json:"user_id,omitempty"`
	MoodText        string           `json:"mood"`
	Constraints     core.Constraints `json:"constraints"`
	UseEnhanced     bool             `json:"use_enhanced"`
	LearningEnabled bool             `json:"learning_enabled"`
}

// Recommendation 是一条推荐结果。
type Recommendation struct {
	Recipe       *core.Recipe `json:"recipe"`
	Similarity   float64      `json:"similarity"`
	CuisineBoost float64      `json:"cuisine_boost"`
	FinalScore   float64      `json:"final_score"`
}

// Result 是推荐输出，Warnings 收集所有降级信息。
type Result struct {
	Tags            []string           `json:"tags"`
	Sentiment       float64            `json:"sentiment"`
	Summary         string             `json:"summary"`
	Scores          map[string]float64 `json:"scores,omitempty"`
	Recommendations []Recommendation   `json:"recommendations"`
	Warnings        []string           `json:"warnings,omitempty"`
}

// Recommender 是推荐入口，构建后可并发使用；画像的并发由 profile.Manager 保证。
type Recommender struct {
	opts     Options
	pipeline *pipeline.Pipeline
	logger   zerolog.Logger
}

// New 创建 Recommender。
func New(opts Options) (*Recommender, error) {
	if opts.Analyzer == nil {
		opts.Analyzer = mood.NewAnalyzer(mood.Options{})
	}
	if opts.Vectors == nil {
		return nil, errors.New("recommend: vector source is required")
	}
	if opts.CandidatePool <= 0 {
		opts.CandidatePool = 6
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 3
	}
	if opts.MaxSameCuisine <= 0 {
		opts.MaxSameCuisine = 2
	}
	r := &Recommender{opts: opts, logger: logging.Component("recommend")}
	if opts.Pipeline != nil {
		// 浅拷贝，不改动调用方的 Hooks
		p := *opts.Pipeline
		p.Hooks = slices.Clone(p.Hooks)
		r.pipeline = &p
	} else {
		r.pipeline = DefaultPipeline(opts)
	}
	r.pipeline.Hooks = append(r.pipeline.Hooks, r.traceNode)
	return r, nil
}

// DefaultPipeline 返回默认链路：
//
//	filter(constraint, expr, [disliked]) -> rank.similarity -> topn(pool) -> diversity -> topn(max)
func DefaultPipeline(opts Options) *pipeline.Pipeline {
	exprFilter, _ := filter.NewExprFilter("", true)
	filters := []filter.Filter{filter.NewConstraintFilter(), exprFilter}
	if opts.ExcludeDisliked {
		filters = append(filters, filter.NewDislikedFilter())
	}
	return &pipeline.Pipeline{Nodes: []pipeline.Node{
		filter.NewFilterNode(filters...),
		&rank.SimilarityNode{Vectors: opts.Vectors},
		&rerank.TopNNode{N: opts.CandidatePool, Param: ParamCandidatePool},
		&rerank.Diversity{LabelKey: "cuisine", MaxPerCategory: opts.MaxSameCuisine, MaxResults: opts.MaxResults},
		&rerank.TopNNode{N: opts.MaxResults, Param: ParamMaxResults},
	}}
}

// 请求级参数名。
const (
	ParamCandidatePool = "candidate_pool"
	ParamMaxResults    = "max_results"
)

func (r *Recommender) traceNode(node pipeline.Node, in, out int, cost time.Duration, err error) {
	r.logger.Debug().
		Str("node", node.Name()).
		Str("kind", string(node.Kind())).
		Int("in", in).
		Int("out", out).
		Dur("cost", cost).
		AnErr("error", err).
		Msg("node done")
}

// Analyze 只做情绪分析。
func (r *Recommender) Analyze(text string) mood.Analysis {
	return r.opts.Analyzer.Analyze(text)
}

// Recommend 为心情文本推荐至多 MaxResults 道菜。
//
// 空心情、空目录、没有候选通过过滤、嵌入失败都不返回错误，
// 而是返回空结果并在 Warnings 中说明；只有 ctx 取消时返回错误。
func (r *Recommender) Recommend(ctx context.Context, cat *catalog.Catalog, req Request) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analysis := r.opts.Analyzer.Analyze(req.MoodText)
	res := &Result{
		Tags:            analysis.Tags,
		Sentiment:       analysis.Sentiment,
		Summary:         analysis.Summary,
		Scores:          analysis.Scores,
		Recommendations: []Recommendation{},
	}
	r.opts.Metrics.ObserveMoodTags(analysis.Tags)

	if strings.TrimSpace(req.MoodText) == "" {
		res.Warnings = append(res.Warnings, WarnEmptyMood)
		r.opts.Metrics.ObserveRecommend(metrics.OutcomeEmptyMood, 0, time.Since(start))
		return res, nil
	}
	if cat.Len() == 0 {
		res.Warnings = append(res.Warnings, WarnEmptyCatalog)
		r.opts.Metrics.ObserveRecommend(metrics.OutcomeEmpty, 0, time.Since(start))
		return res, nil
	}

	rctx := &core.RecommendContext{
		UserID:          req.UserID,
		MoodText:        req.MoodText,
		MoodTags:        analysis.Tags,
		Sentiment:       analysis.Sentiment,
		Constraints:     req.Constraints,
		UseEnhanced:     req.UseEnhanced,
		LearningEnabled: req.LearningEnabled,
		Params:          map[string]any{},
	}
	if req.LearningEnabled && r.opts.Profiles != nil {
		rctx.User = r.opts.Profiles.Profile()
	}
	if expr := req.Constraints.Expr; expr != "" {
		if _, err := dsl.Compile(expr); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("ignoring filter expression: %v", err))
			rctx.Constraints.Expr = ""
		}
	}

	items := make([]*core.Item, 0, cat.Len())
	for _, recipe := range cat.Recipes {
		items = append(items, recipe.ToItem())
	}

	out, err := r.pipeline.Run(ctx, rctx, items)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Warn().Err(err).Str("mood", req.MoodText).Msg("recommendation failed")
		res.Warnings = append(res.Warnings, fmt.Sprintf("recommendation failed: %v", err))
		r.opts.Metrics.ObserveRecommend(metrics.OutcomeError, 0, time.Since(start))
		return res, nil
	}

	for _, it := range out {
		if it == nil || it.Recipe == nil {
			continue
		}
		res.Recommendations = append(res.Recommendations, Recommendation{
			Recipe:       it.Recipe,
			Similarity:   it.Features[rank.FeatureSimilarity],
			CuisineBoost: it.Features[rank.FeatureCuisineBoost],
			FinalScore:   it.Features[rank.FeatureFinalScore],
		})
	}

	outcome := metrics.OutcomeOK
	if len(res.Recommendations) == 0 {
		outcome = metrics.OutcomeEmpty
		res.Warnings = append(res.Warnings, WarnNoMatches)
	}
	r.opts.Metrics.ObserveRecommend(outcome, len(res.Recommendations), time.Since(start))
	r.logger.Info().
		Strs("tags", res.Tags).
		Float64("sentiment", res.Sentiment).
		Int("candidates", cat.Len()).
		Int("results", len(res.Recommendations)).
		Dur("took", time.Since(start)).
		Msg("recommend")
	return res, nil
}

// RecordFeedback 把评分写回画像。落盘失败返回 PERSISTENCE 错误，但内存画像已更新。
func (r *Recommender) RecordFeedback(ctx context.Context, recipe *core.Recipe, rating int, moodTags []string) (core.FeedbackRecord, error) {
	if r.opts.Profiles == nil {
		return core.FeedbackRecord{}, core.NewDomainError(core.ModuleProfile, core.ErrorCodeNotSupported, "learning is disabled")
	}
	if recipe == nil {
		return core.FeedbackRecord{}, core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput, "recipe is required")
	}
	rec, err := r.opts.Profiles.RecordFeedback(ctx, recipe.Title, rating, moodTags, recipe.Meta())
	if core.IsInvalidInput(err) {
		return rec, err
	}
	r.opts.Metrics.ObserveFeedback(rating)
	if core.IsPersistence(err) {
		r.opts.Metrics.ObservePersistFailure()
	}
	return rec, err
}

// Profiles 返回画像管理器，可能为 nil。
func (r *Recommender) Profiles() *profile.Manager { return r.opts.Profiles }
