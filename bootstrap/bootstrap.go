// Package bootstrap 按 config.AppConfig 组装整个应用：存储、嵌入、情绪分析、画像、推荐与目录。
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rushteam/moodmeal/api"
	"github.com/rushteam/moodmeal/catalog"
	"github.com/rushteam/moodmeal/config"
	"github.com/rushteam/moodmeal/config/builders"
	"github.com/rushteam/moodmeal/core"
	"github.com/rushteam/moodmeal/embedding"
	"github.com/rushteam/moodmeal/metrics"
	"github.com/rushteam/moodmeal/mood"
	"github.com/rushteam/moodmeal/pipeline"
	"github.com/rushteam/moodmeal/pkg/logging"
	"github.com/rushteam/moodmeal/profile"
	"github.com/rushteam/moodmeal/recommend"
	"github.com/rushteam/moodmeal/store"
)

// App 持有组装好的组件。Warnings 是启动阶段的降级提示（目录、画像加载失败等）。
type App struct {
	Config      *config.AppConfig
	Store       core.Store
	Vectors     *embedding.Provider
	Analyzer    *mood.Analyzer
	Profiles    *profile.Manager
	Metrics     *metrics.Metrics
	Recommender *recommend.Recommender
	Catalog     *catalog.Catalog
	Warnings    []string
}

// InitLogging 按配置初始化全局日志。
func InitLogging(cfg config.LogConfig) {
	logging.Init(logging.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		Caller:    cfg.Caller,
		Timestamp: true,
	})
}

// New 组装应用。配置错误（未知后端、远端嵌入参数非法、流水线无法构建）返回错误；
// 目录与画像的读取失败只记为 Warnings。
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logging.Component("bootstrap")
	app := &App{Config: cfg}

	if cfg.Metrics.Enabled {
		app.Metrics = metrics.New()
	}

	st, err := store.New(store.Options{
		Type:      cfg.Store.Type,
		Dir:       cfg.Store.Dir,
		RedisAddr: cfg.Store.RedisAddr,
		RedisDB:   cfg.Store.RedisDB,
		RedisPass: cfg.Store.RedisPassword,
		KeyPrefix: cfg.Store.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	app.Store = st

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	weights := cfg.Embedding.Weights
	app.Vectors = embedding.NewProvider(embedder, embedding.Options{
		CacheSize: cfg.Embedding.CacheSize,
		Weights:   &weights,
		OnCache:   app.Metrics.ObserveCache,
	})

	tags, summary := cfg.Mood.Tags, cfg.Mood.Summary
	app.Analyzer = mood.NewAnalyzer(mood.Options{
		Tags:    &tags,
		Summary: &summary,
		MaxTags: cfg.Mood.MaxTags,
		Window:  cfg.Mood.Window,
	})

	app.Profiles = profile.NewManager(profile.Options{
		Store:        st,
		Key:          cfg.Store.Key,
		CuisineBoost: cfg.Learning.CuisineBoost,
		MaxHistory:   cfg.Learning.MaxHistory,
		RecentDays:   cfg.Learning.RecentDays,
	})
	if err := app.Profiles.Load(ctx); err != nil {
		app.Warnings = append(app.Warnings, fmt.Sprintf("Could not load saved preferences: %v", err))
	}

	pl, err := buildPipeline(cfg, app.Vectors)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	app.Recommender, err = recommend.New(recommend.Options{
		Analyzer:        app.Analyzer,
		Vectors:         app.Vectors,
		Profiles:        app.Profiles,
		Metrics:         app.Metrics,
		Pipeline:        pl,
		CandidatePool:   cfg.Recommend.CandidatePool,
		MaxResults:      cfg.Recommend.MaxResults,
		MaxSameCuisine:  cfg.Recommend.MaxSameCuisine,
		ExcludeDisliked: cfg.Recommend.ExcludeDisliked,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	app.Catalog = loadCatalog(cfg.Catalog.Path, &app.Warnings)

	for _, w := range app.Warnings {
		log.Warn().Msg(w)
	}
	log.Info().
		Str("store", st.Name()).
		Str("embedder", embedder.Name()).
		Int("recipes", app.Catalog.Len()).
		Bool("custom_pipeline", pl != nil).
		Msg("app ready")
	return app, nil
}

// buildPipeline 按配置构建自定义链路；未配置时返回 nil，由 recommend 使用默认链路。
func buildPipeline(cfg *config.AppConfig, vectors *embedding.Provider) (*pipeline.Pipeline, error) {
	f := config.DefaultFactory()
	f.Register("rank.similarity", builders.SimilarityBuilder(vectors))

	if cfg.PipelineFile == "" {
		if len(cfg.Pipeline) == 0 {
			return nil, nil
		}
		return pipeline.BuildNodes(f, cfg.Pipeline)
	}

	var (
		pc  *pipeline.Config
		err error
	)
	switch strings.ToLower(filepath.Ext(cfg.PipelineFile)) {
	case ".json":
		pc, err = pipeline.LoadFromJSON(cfg.PipelineFile)
	default:
		pc, err = pipeline.LoadFromYAML(cfg.PipelineFile)
	}
	if err != nil {
		return nil, err
	}
	if err := config.ValidatePipelineConfig(pc.Pipeline.Nodes, config.InjectedTypes...); err != nil {
		return nil, err
	}
	return pc.BuildPipeline(f)
}

func newEmbedder(cfg config.EmbeddingConfig) (core.Embedder, error) {
	switch cfg.Provider {
	case "", "hashing":
		return embedding.NewHashingEmbedder(cfg.Dimension), nil
	case "remote":
		return embedding.NewRemoteEmbedder(embedding.RemoteConfig{
			BaseURL:           cfg.Remote.BaseURL,
			APIKey:            cfg.Remote.APIKey,
			Model:             cfg.Remote.Model,
			Dimension:         cfg.Dimension,
			Timeout:           cfg.Remote.Timeout,
			MaxRetries:        cfg.Remote.MaxRetries,
			RequestsPerSecond: cfg.Remote.RequestsPerSecond,
			Burst:             cfg.Remote.Burst,
			FailureThreshold:  cfg.Remote.FailureThreshold,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// loadCatalog 读取目录；path 为空时用内置示例，读取失败时返回空目录并记录告警。
func loadCatalog(path string, warnings *[]string) *catalog.Catalog {
	if path == "" {
		return catalog.Sample()
	}
	c, err := catalog.Load(path)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("Could not load recipes from %s: %v", path, err))
		return catalog.New(nil)
	}
	if n := len(c.Skipped); n > 0 {
		*warnings = append(*warnings, fmt.Sprintf("Skipped %d malformed recipe rows", n))
	}
	return c
}

// Server 返回绑定到本应用的 HTTP 服务。
func (a *App) Server() *api.Server {
	return api.NewServer(api.Options{
		Recommender:     a.Recommender,
		Catalog:         a.Catalog,
		Metrics:         a.Metrics,
		Cache:           a.Vectors,
		UseEnhanced:     a.Config.Recommend.UseEnhanced,
		LearningEnabled: a.Config.Learning.Enabled,
	})
}

// Close 释放存储连接。
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
