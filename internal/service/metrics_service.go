package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/reconcile"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	reconcileTotal  *prometheus.CounterVec
	syncDuration    prometheus.Observer
	syncTotal       *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	storeRevision   prometheus.Gauge
	storeEvents     *prometheus.GaugeVec
	interpreterTime prometheus.Observer

	requestCount         uint64
	requestDurationTotal uint64
	syncSuccessCount     uint64
	syncFailureCount     uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	noMatchCount         uint64
	malformedCount       uint64
	revision             uint64

	mu              sync.Mutex
	reconcileByTier map[string]uint64
}

// NewMetricsService registers core Prometheus collectors.
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

	reconcileTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcal_reconciliations_total",
		Help: "Mutation results reconciled against the store",
	}, []string{"action", "tier", "result"})

	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatcal_sync_duration_seconds",
		Help:    "Duration of remote sync fetches",
		Buckets: prometheus.DefBuckets,
	})

	syncTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcal_sync_total",
		Help: "Remote sync attempts by result",
	}, []string{"result"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcal_snapshot_cache_lookups_total",
		Help: "Snapshot cache lookups by result",
	}, []string{"result"})

	storeRevision := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chatcal_store_revision",
		Help: "Current event store revision",
	})

	storeEvents := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chatcal_store_events",
		Help: "Events held by the store",
	}, []string{"state"})

	interpreterTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatcal_interpreter_duration_seconds",
		Help:    "Latency of mutation interpreter calls",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, reconcileTotal, syncDuration, syncTotal, cacheLookups, storeRevision, storeEvents, interpreterTime, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		reconcileTotal:  reconcileTotal,
		syncDuration:    syncDuration,
		syncTotal:       syncTotal,
		cacheLookups:    cacheLookups,
		storeRevision:   storeRevision,
		storeEvents:     storeEvents,
		interpreterTime: interpreterTime,
		reconcileByTier: make(map[string]uint64),
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveReconcile counts one reconciliation by its outcome.
func (m *MetricsService) ObserveReconcile(outcome reconcile.Outcome, err error) {
	if m == nil {
		return
	}
	action := string(outcome.Action)
	if action == "" {
		action = "none"
	}
	result := "applied"
	switch {
	case err != nil:
		result = "malformed"
		atomic.AddUint64(&m.malformedCount, 1)
	case outcome.NoMatch():
		result = "no_match"
		atomic.AddUint64(&m.noMatchCount, 1)
	case !outcome.Changed():
		result = "unchanged"
	}
	tier := outcome.Tier.String()
	m.reconcileTotal.WithLabelValues(action, tier, result).Inc()

	m.mu.Lock()
	m.reconcileByTier[tier]++
	m.mu.Unlock()
}

// ObserveSync records a remote sync attempt.
func (m *MetricsService) ObserveSync(success bool, duration time.Duration, _ int) {
	if m == nil {
		return
	}
	m.syncDuration.Observe(duration.Seconds())
	if success {
		m.syncTotal.WithLabelValues("success").Inc()
		atomic.AddUint64(&m.syncSuccessCount, 1)
		return
	}
	m.syncTotal.WithLabelValues("failure").Inc()
	atomic.AddUint64(&m.syncFailureCount, 1)
}

// RecordCacheOperation records a snapshot cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// ObserveInterpreter tracks interpreter latency.
func (m *MetricsService) ObserveInterpreter(duration time.Duration) {
	if m == nil {
		return
	}
	m.interpreterTime.Observe(duration.Seconds())
}

// ObserveStore updates the store gauges. Registered as a store change hook.
func (m *MetricsService) ObserveStore(snapshot models.StoreSnapshot) {
	if m == nil {
		return
	}
	var active, deleted int
	for _, e := range snapshot.Events {
		if e.IsDeleted {
			deleted++
			continue
		}
		active++
	}
	m.storeRevision.Set(float64(snapshot.Revision))
	m.storeEvents.WithLabelValues("active").Set(float64(active))
	m.storeEvents.WithLabelValues("deleted").Set(float64(deleted))
	atomic.StoreUint64(&m.revision, snapshot.Revision)
}

// Snapshot returns aggregated metrics suitable for the stats endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	m.mu.Lock()
	byTier := make(map[string]uint64, len(m.reconcileByTier))
	for tier, count := range m.reconcileByTier {
		byTier[tier] = count
	}
	m.mu.Unlock()

	return models.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		Reconciliations:          byTier,
		NoMatchTotal:             atomic.LoadUint64(&m.noMatchCount),
		MalformedTotal:           atomic.LoadUint64(&m.malformedCount),
		SyncSuccesses:            atomic.LoadUint64(&m.syncSuccessCount),
		SyncFailures:             atomic.LoadUint64(&m.syncFailureCount),
		CacheHits:                atomic.LoadUint64(&m.cacheHitCount),
		CacheMisses:              atomic.LoadUint64(&m.cacheMissCount),
		StoreRevision:            atomic.LoadUint64(&m.revision),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
