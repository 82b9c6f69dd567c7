package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rushteam/moodmeal/core"
)

// RemoteConfig 配置 OpenAI 兼容的 /embeddings 客户端。
type RemoteConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	Timeout   time.Duration

	MaxRetries  int
	BaseBackoff time.Duration // 指数退避起点，上限 5s

	// 限流：每秒请求数与突发；RequestsPerSecond <= 0 表示不限
	RequestsPerSecond float64
	Burst             int

	// 熔断：连续失败 FailureThreshold 次后打开，OpenTimeout 后半开
	FailureThreshold uint32
	OpenTimeout      time.Duration

	HTTPClient *http.Client
}

// RemoteEmbedder 调用远端嵌入服务，带重试、限流与熔断。
// 返回向量统一补齐/截断到声明的 Dimension；空串不发请求，直接返回零向量。
type RemoteEmbedder struct {
	cfg     RemoteConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]float64]
}

// NewRemoteEmbedder 创建远端嵌入客户端。
func NewRemoteEmbedder(cfg RemoteConfig) (*RemoteEmbedder, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("remote embedder: dimension must be positive")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if burst <= 0 {
			burst = 1
		}
	}

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
		Name:    "embedding.remote",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	return &RemoteEmbedder{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
	}, nil
}

func (c *RemoteEmbedder) Name() string { return "remote:" + c.cfg.Model }

func (c *RemoteEmbedder) Dimension() int { return c.cfg.Dimension }

func (c *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return make([]float64, c.cfg.Dimension), nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	v, err := c.breaker.Execute(func() ([]float64, error) {
		return c.embedWithRetry(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, core.WrapDomainError(core.ModuleEmbedding, core.ErrorCodeUnavailable, "embedding service circuit open", err)
	}
	if err != nil {
		return nil, err
	}
	return Pad(v, c.cfg.Dimension), nil
}

type embedRequest struct {
	Input  string `json:"input,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	Model  string `json:"model"`
}

// errRetryable 标记可以重试的失败（网络错误、429、5xx、响应无法解析）。
type errRetryable struct{ err error }

func (e errRetryable) Error() string { return e.err.Error() }
func (e errRetryable) Unwrap() error { return e.err }

func (c *RemoteEmbedder) embedWithRetry(ctx context.Context, text string) ([]float64, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		v, wait, err := c.post(ctx, text)
		if err == nil {
			return v, nil
		}
		lastErr = err
		var re errRetryable
		if !errors.As(err, &re) || attempt == c.cfg.MaxRetries {
			break
		}
		if wait <= 0 {
			wait = c.retryDelay(attempt)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

// post 发一次请求；wait > 0 表示服务端给出的 Retry-After。
func (c *RemoteEmbedder) post(ctx context.Context, text string) ([]float64, time.Duration, error) {
	body, err := json.Marshal(embedRequest{Input: text, Prompt: text, Model: c.cfg.Model})
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, errRetryable{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		var wait time.Duration
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			wait = time.Duration(secs) * time.Second
		}
		return nil, wait, errRetryable{fmt.Errorf("embeddings request failed: %s", resp.Status)}
	}
	if resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errRetryable{err}
	}
	v, err := decodeEmbedding(payload)
	if err != nil {
		return nil, 0, errRetryable{err}
	}
	return v, 0, nil
}

// decodeEmbedding 先按 OpenAI 形状 {"data":[{"embedding":[...]}]} 解析，
// 再回退到 Ollama 形状 {"embedding":[...]}。
func decodeEmbedding(payload []byte) ([]float64, error) {
	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if len(out.Data) > 0 && len(out.Data[0].Embedding) > 0 {
		return out.Data[0].Embedding, nil
	}
	if len(out.Embedding) > 0 {
		return out.Embedding, nil
	}
	return nil, errors.New("no embedding returned")
}

func (c *RemoteEmbedder) retryDelay(attempt int) time.Duration {
	d := c.cfg.BaseBackoff << attempt
	if d > 5*time.Second || d <= 0 {
		d = 5 * time.Second
	}
	return d
}
