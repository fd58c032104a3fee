package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-report-batch/internal/models"
)

// Item outcomes reported by the scheduler.
const (
	OutcomeSucceeded    = "succeeded"
	OutcomeRenderFailed = "render_failed"
	OutcomeEffectFailed = "effect_failed"
	OutcomeCancelled    = "cancelled"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP, cache and batch activity.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	batchStarted  *prometheus.CounterVec
	batchItems    *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	staleUpdates  prometheus.Counter
	batchRunning  prometheus.Gauge
}

// NewMetricsService registers the collectors on a private registry.
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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ranking_cache_hits_total",
		Help: "Total ranking cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ranking_cache_misses_total",
		Help: "Total ranking cache misses",
	})

	batchStarted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_started_total",
		Help: "Batches started by kind",
	}, []string{"kind"})

	batchItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_items_total",
		Help: "Batch items settled by kind and outcome",
	}, []string{"kind", "outcome"})

	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "batch_duration_seconds",
		Help:    "Wall time from batch start to settlement",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"kind"})

	staleUpdates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batch_stale_updates_total",
		Help: "Progress or finish reports dropped because their batch was superseded",
	})

	batchRunning := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "batch_running",
		Help: "Batches currently dispatching",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		batchStarted, batchItems, batchDuration, staleUpdates, batchRunning, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		batchStarted:    batchStarted,
		batchItems:      batchItems,
		batchDuration:   batchDuration,
		staleUpdates:    staleUpdates,
		batchRunning:    batchRunning,
	}
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

// ObserveCacheWrite tracks the duration for cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// BatchStarted counts a new batch and marks it running.
func (m *MetricsService) BatchStarted(kind models.BatchKind) {
	if m == nil {
		return
	}
	m.batchStarted.WithLabelValues(string(kind)).Inc()
	m.batchRunning.Inc()
}

// BatchItem counts one settled item.
func (m *MetricsService) BatchItem(kind models.BatchKind, outcome string) {
	if m == nil {
		return
	}
	m.batchItems.WithLabelValues(string(kind), outcome).Inc()
}

// BatchFinished observes how long a dispatched batch ran.
func (m *MetricsService) BatchFinished(kind models.BatchKind, duration time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
	m.batchRunning.Dec()
}

// StaleUpdate counts a dropped report from a superseded batch.
func (m *MetricsService) StaleUpdate() {
	if m == nil {
		return
	}
	m.staleUpdates.Inc()
}
