package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRecommend(OutcomeOK, 3, 20*time.Millisecond)
	m.ObserveRecommend(OutcomeOK, 2, 10*time.Millisecond)
	m.ObserveRecommend(OutcomeEmpty, 0, time.Millisecond)
	m.ObserveFeedback(5)
	m.ObserveFeedback(4)
	m.ObserveFeedback(3)
	m.ObserveFeedback(1)
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.ObservePersistFailure()
	m.ObserveMoodTags([]string{"stress", "comfort", "stress"})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"recommend ok", testutil.ToFloat64(m.recommendTotal.WithLabelValues(OutcomeOK)), 2},
		{"recommend empty", testutil.ToFloat64(m.recommendTotal.WithLabelValues(OutcomeEmpty)), 1},
		{"feedback positive", testutil.ToFloat64(m.feedbackTotal.WithLabelValues("positive")), 2},
		{"feedback neutral", testutil.ToFloat64(m.feedbackTotal.WithLabelValues("neutral")), 1},
		{"feedback negative", testutil.ToFloat64(m.feedbackTotal.WithLabelValues("negative")), 1},
		{"cache hit", testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")), 1},
		{"cache miss", testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")), 2},
		{"persist failures", testutil.ToFloat64(m.persistFailures), 1},
		{"mood stress", testutil.ToFloat64(m.moodTags.WithLabelValues("stress")), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveFeedback(5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `moodmeal_feedback_total{polarity="positive"} 1`) {
		t.Errorf("metrics output missing feedback counter:\n%s", rec.Body.String())
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRecommend(OutcomeOK, 1, time.Second)
	m.ObserveFeedback(5)
	m.ObserveCache(true)
	m.ObservePersistFailure()
	m.ObserveMoodTags([]string{"calm"})
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
