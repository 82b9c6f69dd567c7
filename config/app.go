// Package config 负责应用配置（koanf 分层加载 + validator 校验）与配置驱动的 Node 注册表。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/rushteam/moodmeal/embedding"
	"github.com/rushteam/moodmeal/mood"
	"github.com/rushteam/moodmeal/pipeline"
)

// 环境变量：MOODMEAL_ 前缀，双下划线表示层级，例如
// MOODMEAL_EMBEDDING__CACHE_SIZE=500 -> embedding.cache_size。
const (
	EnvPrefix     = "MOODMEAL_"
	ConfigPathEnv = "MOODMEAL_CONFIG"
)

// AppConfig 是应用的全部可配置项。
type AppConfig struct {
	Log       LogConfig             `koanf:"log" yaml:"log"`
	Server    ServerConfig          `koanf:"server" yaml:"server"`
	Catalog   CatalogConfig         `koanf:"catalog" yaml:"catalog"`
	Store     StoreConfig           `koanf:"store" yaml:"store"`
	Embedding EmbeddingConfig       `koanf:"embedding" yaml:"embedding"`
	Mood      MoodConfig            `koanf:"mood" yaml:"mood"`
	Learning  LearningConfig        `koanf:"learning" yaml:"learning"`
	Recommend RecommendConfig       `koanf:"recommend" yaml:"recommend"`
	Metrics   MetricsConfig         `koanf:"metrics" yaml:"metrics"`
	Pipeline  []pipeline.NodeConfig `koanf:"pipeline" yaml:"pipeline,omitempty" validate:"omitempty,dive"`

	// PipelineFile 指向单独的流水线文件（.yaml/.yml/.json），与 Pipeline 互斥
	PipelineFile string `koanf:"pipeline_file" yaml:"pipeline_file,omitempty" validate:"excluded_with=Pipeline"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller" yaml:"caller"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr" yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
}

// CatalogConfig 中 Path 为空时使用内置示例目录。
type CatalogConfig struct {
	Path string `koanf:"path" yaml:"path"`
}

type StoreConfig struct {
	Type          string `koanf:"type" yaml:"type" validate:"oneof=file memory redis"`
	Dir           string `koanf:"dir" yaml:"dir"`
	Key           string `koanf:"key" yaml:"key" validate:"required"`
	RedisAddr     string `koanf:"redis_addr" yaml:"redis_addr" validate:"required_if=Type redis"`
	RedisDB       int    `koanf:"redis_db" yaml:"redis_db" validate:"gte=0"`
	RedisPassword string `koanf:"redis_password" yaml:"redis_password"`
	KeyPrefix     string `koanf:"key_prefix" yaml:"key_prefix"`
}

type EmbeddingConfig struct {
	Provider  string            `koanf:"provider" yaml:"provider" validate:"oneof=hashing remote"`
	Dimension int               `koanf:"dimension" yaml:"dimension" validate:"gt=0"`
	CacheSize int               `koanf:"cache_size" yaml:"cache_size" validate:"gt=0"`
	Weights   embedding.Weights `koanf:"weights" yaml:"weights"`
	Remote    RemoteConfig      `koanf:"remote" yaml:"remote"`
}

// RemoteConfig 对应 OpenAI 兼容的 /embeddings 服务。
type RemoteConfig struct {
	BaseURL           string        `koanf:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKey            string        `koanf:"api_key" yaml:"api_key"`
	Model             string        `koanf:"model" yaml:"model"`
	Timeout           time.Duration `koanf:"timeout" yaml:"timeout" validate:"gte=0"`
	MaxRetries        int           `koanf:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
	RequestsPerSecond float64       `koanf:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
	Burst             int           `koanf:"burst" yaml:"burst" validate:"gte=0"`
	FailureThreshold  uint32        `koanf:"failure_threshold" yaml:"failure_threshold"`
}

type MoodConfig struct {
	MaxTags int                    `koanf:"max_tags" yaml:"max_tags" validate:"gt=0"`
	Window  int                    `koanf:"window" yaml:"window" validate:"gt=0"`
	Tags    mood.TagThresholds     `koanf:"tags" yaml:"tags"`
	Summary mood.SummaryThresholds `koanf:"summary" yaml:"summary"`
}

type LearningConfig struct {
	Enabled      bool    `koanf:"enabled" yaml:"enabled"`
	CuisineBoost float64 `koanf:"cuisine_boost" yaml:"cuisine_boost" validate:"gt=0,lte=1"`
	// FeedbackDecay 预留，当前打分不使用
	FeedbackDecay float64 `koanf:"feedback_decay" yaml:"feedback_decay" validate:"gte=0,lte=1"`
	MaxHistory    int     `koanf:"max_history" yaml:"max_history" validate:"gt=0"`
	RecentDays    int     `koanf:"recent_days" yaml:"recent_days" validate:"gt=0"`
}

type RecommendConfig struct {
	MaxResults      int  `koanf:"max_results" yaml:"max_results" validate:"gt=0"`
	MaxSameCuisine  int  `koanf:"max_same_cuisine" yaml:"max_same_cuisine" validate:"gt=0"`
	CandidatePool   int  `koanf:"candidate_pool" yaml:"candidate_pool" validate:"gtefield=MaxResults"`
	UseEnhanced     bool `koanf:"use_enhanced" yaml:"use_enhanced"`
	ExcludeDisliked bool `koanf:"exclude_disliked" yaml:"exclude_disliked"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
}

// Default 返回默认配置。
func Default() *AppConfig {
	return &AppConfig{
		Log:     LogConfig{Level: "info", Format: "console"},
		Server:  ServerConfig{Addr: ":8080", ReadTimeout: 10 * time.Second, WriteTimeout: 30 * time.Second},
		Catalog: CatalogConfig{},
		Store:   StoreConfig{Type: "file", Dir: "cache", Key: "user_profiles", KeyPrefix: "moodmeal:"},
		Embedding: EmbeddingConfig{
			Provider:  "hashing",
			Dimension: embedding.DefaultDimension,
			CacheSize: 100,
			Weights:   embedding.DefaultWeights(),
			Remote: RemoteConfig{
				BaseURL:          "https://api.openai.com/v1",
				Model:            "text-embedding-3-small",
				Timeout:          30 * time.Second,
				MaxRetries:       3,
				FailureThreshold: 5,
			},
		},
		Mood: MoodConfig{
			MaxTags: 5,
			Window:  20,
			Tags:    mood.DefaultTagThresholds(),
			Summary: mood.DefaultSummaryThresholds(),
		},
		Learning: LearningConfig{
			Enabled:       true,
			CuisineBoost:  0.1,
			FeedbackDecay: 0.95,
			MaxHistory:    50,
			RecentDays:    30,
		},
		Recommend: RecommendConfig{
			MaxResults:     3,
			MaxSameCuisine: 2,
			CandidatePool:  6,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

var validate = validator.New()

// InjectedTypes 是运行时才注册（需要依赖注入）的 Node 类型。
var InjectedTypes = []string{"rank.similarity"}

// Validate 校验配置取值。
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := ValidatePipelineConfig(c.Pipeline, InjectedTypes...); err != nil {
		return err
	}
	return nil
}

// Load 按 默认值 -> YAML 文件（path 为空则跳过）-> 环境变量 的顺序加载并校验。
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &AppConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransformFunc: MOODMEAL_RECOMMEND__MAX_RESULTS -> recommend.max_results。
// MOODMEAL_CONFIG 本身不是配置项，返回空串忽略。
func envTransformFunc(key string) string {
	if key == ConfigPathEnv {
		return ""
	}
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// DefaultPaths 返回配置文件的查找顺序：./moodmeal.yaml，~/.config/moodmeal/config.yaml。
func DefaultPaths() []string {
	paths := []string{"moodmeal.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "moodmeal", "config.yaml"))
	}
	return paths
}

// LoadDefault 依次查找 MOODMEAL_CONFIG 与 DefaultPaths；都不存在时把默认配置写到
// 最后一个路径（写失败忽略），再按默认值与环境变量加载。返回实际使用的文件路径。
func LoadDefault() (*AppConfig, string, error) {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		cfg, err := Load(p)
		return cfg, p, err
	}
	paths := DefaultPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	target := paths[len(paths)-1]
	if err := Save(Default(), target); err != nil {
		target = ""
	}
	cfg, err := Load("")
	return cfg, target, err
}

// Save 以 YAML 写出配置，目录不存在时创建。
func Save(cfg *AppConfig, path string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
