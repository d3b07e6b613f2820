package observability

import (
	"time"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the planner.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	engineRuns      *prometheus.CounterVec
	engineYears     prometheus.Histogram
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planner_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		engineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_engine_runs_total",
				Help: "Total projection calculations executed.",
			},
			[]string{"status"},
		),
		engineYears: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "planner_engine_years_simulated",
				Help:    "Projection horizon per calculation, in years.",
				Buckets: []float64{1, 5, 10, 20, 30, 50, 75, 100},
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrEngineRun increments the engine run counter with a status label.
func (m *Metrics) IncrEngineRun(status string) {
	m.engineRuns.WithLabelValues(status).Inc()
}

// RecordEngineYears records the projection horizon of one calculation.
func (m *Metrics) RecordEngineYears(years int) {
	m.engineYears.Observe(float64(years))
}

// GetEngineSnapshot returns a snapshot of engine-related metrics suitable
// for the GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	// Gather current values from Prometheus counters.
	// Note: Prometheus counters expose cumulative values.
	successRuns := getCounterValue(m.engineRuns, "success")
	errorRuns := getCounterValue(m.engineRuns, "error")
	totalRuns := successRuns + errorRuns
	cacheHits := getCounterValue(m.cacheHits, "series")
	cacheMisses := getCounterValue(m.cacheMisses, "series")
	fxErrors := getCounterValue(m.externalErrors, "fx")

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if totalRuns > 0 {
		errorRate = errorRuns / totalRuns
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.EngineMetrics{
		TotalRuns:    int64(totalRuns),
		ErrorRate:    errorRate,
		CacheHitRate: cacheHitRate,
		FxErrors:     int64(fxErrors),
		Period:       "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
