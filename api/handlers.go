package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rushteam/moodmeal/catalog"
	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/embedding"
	"github.com/rushteam/moodmeal/profile"
	"github.com/rushteam/moodmeal/recommend"
)

// RecommendRequest 是 POST /api/v1/recommend 的请求体。
// UseEnhanced / LearningEnabled 为空时取服务端默认值。
type RecommendRequest struct {
	UserID          string `json:"user_id,omitempty" validate:"max=128"`
	Mood            string `json:"mood" validate:"max=2000"`
	Diet            string `json:"diet,omitempty" validate:"max=32"`
	MealTime        string `json:"meal_time,omitempty" validate:"max=32"`
	MaxCookTime     int    `json:"max_cook_time,omitempty" validate:"gte=0,lte=1440"`
	Cuisine         string `json:"cuisine,omitempty" validate:"max=64"`
	Expr            string `json:"expr,omitempty" validate:"max=1024"`
	UseEnhanced     *bool  `json:"use_enhanced,omitempty"`
	LearningEnabled *bool  `json:"learning_enabled,omitempty"`
}

// FeedbackRequest 是 POST /api/v1/feedback 的请求体。
type FeedbackRequest struct {
	Title  string   `json:"title" validate:"required,max=256"`
	Rating int      `json:"rating" validate:"required,gte=1,lte=5"`
	Tags   []string `json:"tags,omitempty" validate:"max=16,dive,max=64"`
}

// MoodRequest 是 POST /api/v1/mood 的请求体。
type MoodRequest struct {
	Text string `json:"text" validate:"max=2000"`
}

// ProfileResponse 是 GET /api/v1/profile 的返回。
type ProfileResponse struct {
	Profile *core.UserProfile `json:"profile"`
	Summary profile.Summary   `json:"summary"`
}

// HealthResponse 是 /healthz 的返回。
type HealthResponse struct {
	Status   string           `json:"status"`
	Recipes  int              `json:"recipes"`
	Embedder string           `json:"embedder,omitempty"`
	Cache    *embedding.Stats `json:"cache,omitempty"`
	Learning bool             `json:"learning"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Recipes:  s.opts.Catalog.Len(),
		Learning: s.opts.Recommender != nil && s.opts.Recommender.Profiles() != nil,
	}
	if c := s.opts.Cache; c != nil {
		st := c.Stats()
		resp.Embedder = c.Name()
		resp.Cache = &st
	}
	respondOK(w, r, resp)
}

// Recommend 处理 POST /api/v1/recommend。
// 空心情、无匹配等降级情况仍返回 200，提示放在 warnings 中。
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in := recommend.Request{
		UserID:   req.UserID,
		MoodText: req.Mood,
		Constraints: core.Constraints{
			Diet:        req.Diet,
			MealTime:    req.MealTime,
			MaxCookTime: req.MaxCookTime,
			Cuisine:     req.Cuisine,
			Expr:        req.Expr,
		},
		UseEnhanced:     boolOr(req.UseEnhanced, s.opts.UseEnhanced),
		LearningEnabled: boolOr(req.LearningEnabled, s.opts.LearningEnabled),
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	res, err := s.opts.Recommender.Recommend(ctx, s.opts.Catalog, in)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			respondError(w, r, http.StatusServiceUnavailable, CodeCanceled, "recommendation canceled", err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "recommendation failed", err)
		return
	}
	respondOK(w, r, res, res.Warnings...)
}

// Feedback 处理 POST /api/v1/feedback。写盘失败时画像已更新，作为告警返回。
func (s *Server) Feedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	recipe, ok := s.opts.Catalog.Find(strings.TrimSpace(req.Title))
	if !ok {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "recipe not found: "+req.Title, nil)
		return
	}
	rec, err := s.opts.Recommender.RecordFeedback(r.Context(), recipe, req.Rating, req.Tags)
	switch {
	case err == nil:
		respondOK(w, r, rec)
	case core.IsNotSupported(err):
		respondError(w, r, http.StatusConflict, CodeLearningDisabled, "preference learning is disabled", err)
	case core.IsInvalidInput(err):
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	case core.IsPersistence(err):
		respondOK(w, r, rec, "Could not save preferences: "+err.Error())
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to record feedback", err)
	}
}

// Mood 处理 POST /api/v1/mood，只做情绪分析。
func (s *Server) Mood(w http.ResponseWriter, r *http.Request) {
	var req MoodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	respondOK(w, r, s.opts.Recommender.Analyze(req.Text))
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	pm := s.profiles()
	if pm == nil {
		respondError(w, r, http.StatusConflict, CodeLearningDisabled, "preference learning is disabled", nil)
		return
	}
	respondOK(w, r, ProfileResponse{Profile: pm.Profile(), Summary: pm.Summary()})
}

// ResetProfile 处理 DELETE /api/v1/profile。清理持久化失败时内存画像已重置，作为告警返回。
func (s *Server) ResetProfile(w http.ResponseWriter, r *http.Request) {
	pm := s.profiles()
	if pm == nil {
		respondError(w, r, http.StatusConflict, CodeLearningDisabled, "preference learning is disabled", nil)
		return
	}
	var warnings []string
	if err := pm.Reset(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("reset profile")
		warnings = append(warnings, "Could not clear saved preferences: "+err.Error())
	}
	respondOK(w, r, ProfileResponse{Profile: pm.Profile(), Summary: pm.Summary()}, warnings...)
}

func (s *Server) CatalogStats(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, catalog.ComputeStats(s.opts.Catalog))
}

// CatalogIssues 返回数据校验问题与解析时跳过的行。
func (s *Server) CatalogIssues(w http.ResponseWriter, r *http.Request) {
	skipped := make([]string, 0)
	if s.opts.Catalog != nil {
		for _, e := range s.opts.Catalog.Skipped {
			skipped = append(skipped, e.Error())
		}
	}
	issues := catalog.Validate(s.opts.Catalog)
	if issues == nil {
		issues = []string{}
	}
	respondOK(w, r, map[string][]string{"issues": issues, "skipped": skipped})
}

func (s *Server) profiles() *profile.Manager {
	if s.opts.Recommender == nil {
		return nil
	}
	return s.opts.Recommender.Profiles()
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
