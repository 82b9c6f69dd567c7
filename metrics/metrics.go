// Package metrics 暴露推荐链路的 Prometheus 指标。
//
// 所有方法对 nil *Metrics 安全，未启用指标时直接传 nil。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moodmeal"

// 推荐结果。
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "empty"
	OutcomeEmptyMood = "empty_mood"
	OutcomeError     = "error"
)

// Metrics 汇总推荐、反馈、嵌入缓存与画像持久化的指标。
type Metrics struct {
	registry *prometheus.Registry

	recommendTotal    *prometheus.CounterVec
	recommendDuration prometheus.Histogram
	recommendResults  prometheus.Histogram
	feedbackTotal     *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	persistFailures   prometheus.Counter
	moodTags          *prometheus.CounterVec
}

// New 在独立的 Registry 上注册全部指标（含 Go 运行时与进程指标）。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		recommendTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Total number of recommendation requests by outcome",
		}, []string{"outcome"}),
		recommendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "Recommendation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		recommendResults: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_results",
			Help:      "Number of recipes returned per request",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),
		feedbackTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Total number of feedback events by polarity",
		}, []string{"polarity"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_lookups_total",
			Help:      "Embedding cache lookups by result",
		}, []string{"result"}),
		persistFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_persist_failures_total",
			Help:      "Total number of failed profile writes",
		}),
		moodTags: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mood_tags_total",
			Help:      "Detected mood tags",
		}, []string{"tag"}),
	}
}

// Registry 返回底层 Registry。
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler 返回 /metrics 处理器；m 为 nil 时返回 404。
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRecommend 记录一次推荐。
func (m *Metrics) ObserveRecommend(outcome string, results int, took time.Duration) {
	if m == nil {
		return
	}
	m.recommendTotal.WithLabelValues(outcome).Inc()
	m.recommendDuration.Observe(took.Seconds())
	m.recommendResults.Observe(float64(results))
}

// ObserveMoodTags 按标签计数。
func (m *Metrics) ObserveMoodTags(tags []string) {
	if m == nil {
		return
	}
	for _, t := range tags {
		m.moodTags.WithLabelValues(t).Inc()
	}
}

// ObserveFeedback 按评分极性计数。
func (m *Metrics) ObserveFeedback(rating int) {
	if m == nil {
		return
	}
	polarity := "neutral"
	switch {
	case rating >= 4:
		polarity = "positive"
	case rating <= 2:
		polarity = "negative"
	}
	m.feedbackTotal.WithLabelValues(polarity).Inc()
}

// ObserveCache 记录一次嵌入缓存查询，可直接作为 embedding.Options.OnCache。
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObservePersistFailure 记录一次画像写入失败。
func (m *Metrics) ObservePersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}
