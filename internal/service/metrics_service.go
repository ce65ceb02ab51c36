package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation. All methods are safe on a nil receiver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec
	rankingDuration prometheus.Observer
	rankingPoolSize prometheus.Observer
	suggestions     *prometheus.CounterVec
	overrides       *prometheus.CounterVec
	batchJobs       *prometheus.CounterVec
}

// NewMetricsService registers collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	rankingDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "matching_ranking_duration_seconds",
		Help:    "Time spent scoring and sorting a tutor pool",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})

	rankingPoolSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "matching_ranking_pool_size",
		Help:    "Number of tutors scored per ranking pass",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	suggestions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_suggestions_total",
		Help: "Suggestions created or transitioned, by resulting status",
	}, []string{"status"})

	overrides := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_overrides_total",
		Help: "Manual assignments created, by whether a suggestion was linked",
	}, []string{"linked"})

	batchJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_batch_requests_total",
		Help: "Batch suggestion requests processed, by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		rankingDuration, rankingPoolSize, suggestions, overrides, batchJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheLookups:    cacheLookups,
		rankingDuration: rankingDuration,
		rankingPoolSize: rankingPoolSize,
		suggestions:     suggestions,
		overrides:       overrides,
		batchJobs:       batchJobs,
	}
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveRanking records one ranking pass.
func (m *MetricsService) ObserveRanking(poolSize int, duration time.Duration) {
	if m == nil {
		return
	}
	m.rankingDuration.Observe(duration.Seconds())
	m.rankingPoolSize.Observe(float64(poolSize))
}

// IncSuggestion counts a suggestion reaching status.
func (m *MetricsService) IncSuggestion(status models.SuggestionStatus) {
	if m == nil {
		return
	}
	m.suggestions.WithLabelValues(string(status)).Inc()
}

// IncOverride counts a manual assignment.
func (m *MetricsService) IncOverride(linked bool) {
	if m == nil {
		return
	}
	m.overrides.WithLabelValues(fmt.Sprintf("%t", linked)).Inc()
}

// IncBatchRequest counts a processed batch item by outcome ("created" or "failed").
func (m *MetricsService) IncBatchRequest(outcome string) {
	if m == nil {
		return
	}
	m.batchJobs.WithLabelValues(outcome).Inc()
}
