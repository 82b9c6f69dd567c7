package tui

import (
	"context"

	"github.com/rushteam/moodmeal/catalog"
	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/profile"
	"github.com/rushteam/moodmeal/recommend"
)

// Service 是 TUI 需要的推荐服务子集。
type Service interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error)
	Feedback(ctx context.Context, title string, rating int, tags []string) (core.FeedbackRecord, error)
	ResetProfile(ctx context.Context) error
	Summary() (profile.Summary, bool)
}

type service struct {
	rec *recommend.Recommender
	cat *catalog.Catalog
}

// NewService 把 Recommender 与目录绑定为 Service。
func NewService(rec *recommend.Recommender, cat *catalog.Catalog) Service {
	return &service{rec: rec, cat: cat}
}

func (s *service) Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error) {
	return s.rec.Recommend(ctx, s.cat, req)
}

func (s *service) Feedback(ctx context.Context, title string, rating int, tags []string) (core.FeedbackRecord, error) {
	r, ok := s.cat.Find(title)
	if !ok {
		return core.FeedbackRecord{}, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "recipe not found: "+title)
	}
	return s.rec.RecordFeedback(ctx, r, rating, tags)
}

func (s *service) ResetProfile(ctx context.Context) error {
	pm := s.rec.Profiles()
	if pm == nil {
		return core.NewDomainError(core.ModuleProfile, core.ErrorCodeNotSupported, "learning is disabled")
	}
	return pm.Reset(ctx)
}

func (s *service) Summary() (profile.Summary, bool) {
	pm := s.rec.Profiles()
	if pm == nil {
		return profile.Summary{}, false
	}
	return pm.Summary(), true
}
