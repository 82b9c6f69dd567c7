// Package api 提供 HTTP 接口（chi 路由），把推荐、反馈、画像与目录统计暴露给前端。
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rushteam/moodmeal/catalog"
	"github.com/rushteam/moodmeal/embedding"
	"github.com/rushteam/moodmeal/metrics"
	"github.com/rushteam/moodmeal/pkg/logging"
	"github.com/rushteam/moodmeal/recommend"
)

// CacheStats 由 embedding.Provider 实现。
type CacheStats interface {
	Name() string
	Stats() embedding.Stats
}

// Options 配置 Server。
type Options struct {
	Recommender *recommend.Recommender
	Catalog     *catalog.Catalog
	Metrics     *metrics.Metrics
	Cache       CacheStats // 可选，用于 /healthz

	// 请求未显式给出时使用的默认值
	UseEnhanced     bool
	LearningEnabled bool

	// RequestTimeout 是单个推荐请求的超时，<= 0 时为 10s
	RequestTimeout time.Duration
}

// Server 持有处理器依赖。
type Server struct {
	opts   Options
	logger zerolog.Logger
}

// NewServer 创建 Server。
func NewServer(opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	return &Server{opts: opts, logger: logging.Component("api")}
}

// Handler 返回完整路由。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.Health)
	r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Post("/recommend", s.Recommend)
		r.Post("/feedback", s.Feedback)
		r.Post("/mood", s.Mood)

		r.Get("/profile", s.GetProfile)
		r.Delete("/profile", s.ResetProfile)

		r.Get("/catalog/stats", s.CatalogStats)
		r.Get("/catalog/issues", s.CatalogIssues)
	})
	return r
}

// requestLogger 为每个请求打一条访问日志。
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", requestID(r)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

func requestID(r *http.Request) string {
	if r == nil {
		return ""
	}
	return chimiddleware.GetReqID(r.Context())
}
