package observability

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics exports Metrics through a Prometheus registry. Metric
// names have dots replaced by underscores. The label set of a metric is
// fixed by its first observation; later tags outside that set are dropped
// and missing ones are recorded as empty.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*labeled[*prometheus.CounterVec]
	gauges     map[string]*labeled[*prometheus.GaugeVec]
	histograms map[string]*labeled[*prometheus.HistogramVec]
}

type labeled[V any] struct {
	vec    V
	labels []string
}

// NewPrometheusMetrics creates a registry with the Go and process collectors.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &PrometheusMetrics{
		registry:   registry,
		counters:   make(map[string]*labeled[*prometheus.CounterVec]),
		gauges:     make(map[string]*labeled[*prometheus.GaugeVec]),
		histograms: make(map[string]*labeled[*prometheus.HistogramVec]),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[name]
	if !ok {
		labels := labelNames(tags)
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: promName(name) + "_total", Help: name}, labels)
		if m.registry.Register(vec) != nil {
			return
		}
		c = &labeled[*prometheus.CounterVec]{vec: vec, labels: labels}
		m.counters[name] = c
	}
	c.vec.WithLabelValues(labelValues(c.labels, tags)...).Add(float64(value))
}

func (m *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gauges[name]
	if !ok {
		labels := labelNames(tags)
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: promName(name), Help: name}, labels)
		if m.registry.Register(vec) != nil {
			return
		}
		g = &labeled[*prometheus.GaugeVec]{vec: vec, labels: labels}
		m.gauges[name] = g
	}
	g.vec.WithLabelValues(labelValues(g.labels, tags)...).Set(value)
}

func (m *PrometheusMetrics) Histogram(name string, value float64, tags ...Tag) {
	m.observe(promName(name), name, value, tags)
}

// Timing records the duration in seconds.
func (m *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.observe(promName(name)+"_seconds", name, duration.Seconds(), tags)
}

func (m *PrometheusMetrics) observe(promKey, help string, value float64, tags []Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.histograms[promKey]
	if !ok {
		labels := labelNames(tags)
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    promKey,
			Help:    help,
			Buckets: prometheus.DefBuckets,
		}, labels)
		if m.registry.Register(vec) != nil {
			return
		}
		h = &labeled[*prometheus.HistogramVec]{vec: vec, labels: labels}
		m.histograms[promKey] = h
	}
	h.vec.WithLabelValues(labelValues(h.labels, tags)...).Observe(value)
}

func promName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func labelNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, promName(t.Key))
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func labelValues(labels []string, tags []Tag) []string {
	values := make([]string, len(labels))
	for _, t := range tags {
		if i, ok := slices.BinarySearch(labels, promName(t.Key)); ok {
			values[i] = t.Value
		}
	}
	return values
}
