package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the extraction pipeline.
type Metrics struct {
	registry *prometheus.Registry

	PagesPrepared prometheus.Counter
	PagesComputed prometheus.Counter
	PagesSkipped  *prometheus.CounterVec
	PageErrors    *prometheus.CounterVec
	PhaseDuration *prometheus.HistogramVec
	CacheWrites   prometheus.Counter
	CacheDeletes  prometheus.Counter
}

// NewMetrics creates a metrics collector backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		PagesPrepared: factory.NewCounter(prometheus.CounterOpts{
			Name: "domgraph_pages_prepared_total",
			Help: "Pages run through the feature prepare phase",
		}),
		PagesComputed: factory.NewCounter(prometheus.CounterOpts{
			Name: "domgraph_pages_computed_total",
			Help: "Pages with a computed and persisted sample",
		}),
		PagesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domgraph_pages_skipped_total",
			Help: "Pages skipped because their phase output already exists",
		}, []string{"phase"}),
		PageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "domgraph_page_errors_total",
			Help: "Pages that failed a phase",
		}, []string{"phase"}),
		PhaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domgraph_phase_duration_seconds",
			Help:    "Per-page duration of prepare and compute phases",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
		CacheWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "domgraph_cache_writes_total",
			Help: "Samples written to cache slots",
		}),
		CacheDeletes: factory.NewCounter(prometheus.CounterOpts{
			Name: "domgraph_cache_deletes_total",
			Help: "Cache slots invalidated",
		}),
	}
}

// Registry exposes the backing registry for scraping or test assertions.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordPrepared counts one prepared page and its duration.
func (m *Metrics) RecordPrepared(d time.Duration) {
	if m == nil {
		return
	}
	m.PagesPrepared.Inc()
	m.PhaseDuration.WithLabelValues("prepare").Observe(d.Seconds())
}

// RecordComputed counts one computed page and its duration.
func (m *Metrics) RecordComputed(d time.Duration) {
	if m == nil {
		return
	}
	m.PagesComputed.Inc()
	m.CacheWrites.Inc()
	m.PhaseDuration.WithLabelValues("compute").Observe(d.Seconds())
}

// RecordSkipped counts one page skipped in a phase.
func (m *Metrics) RecordSkipped(phase string) {
	if m == nil {
		return
	}
	m.PagesSkipped.WithLabelValues(phase).Inc()
}

// RecordError counts one failed page in a phase.
func (m *Metrics) RecordError(phase string) {
	if m == nil {
		return
	}
	m.PageErrors.WithLabelValues(phase).Inc()
}

// RecordDeleted counts invalidated cache slots.
func (m *Metrics) RecordDeleted(n int) {
	if m == nil {
		return
	}
	m.CacheDeletes.Add(float64(n))
}
