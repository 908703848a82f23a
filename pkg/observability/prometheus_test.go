package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics(t *testing.T) {
	m := NewPrometheusMetrics()
	var _ Metrics = m

	m.Counter(MetricRecomputes, 1, T("trigger", "tick"))
	m.Counter(MetricRecomputes, 2, T("trigger", "tick"))
	m.Counter(MetricRecomputes, 1, T("trigger", "created"), T("ignored", "x"))
	m.Gauge(MetricBlocksScheduled, 7)
	m.Timing(MetricRecomputeDuration, 150*time.Millisecond, T("trigger", "tick"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.counters[MetricRecomputes].vec.WithLabelValues("tick")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.counters[MetricRecomputes].vec.WithLabelValues("created")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.gauges[MetricBlocksScheduled].vec.WithLabelValues()))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cadence_schedule_recomputes_total{trigger="tick"} 3`)
	assert.Contains(t, string(body), "cadence_schedule_recompute_duration_seconds_bucket")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestLabelValues(t *testing.T) {
	labels := labelNames([]Tag{T("source", "google"), T("trigger", "tick")})

	assert.Equal(t, []string{"source", "trigger"}, labels)
	assert.Equal(t, []string{"", "tick"}, labelValues(labels, []Tag{T("trigger", "tick")}))
}
