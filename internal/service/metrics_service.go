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

	"github.com/noah-isme/studymate-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	cacheWrite        prometheus.Observer
	cacheHitRatio     prometheus.Gauge
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	conflicts         *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	sessionsGenerated prometheus.Counter
	linkFailures      prometheus.Counter
	lockWait          prometheus.Observer

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	generatedCount       uint64
	linkFailureCount     uint64

	mu            sync.Mutex
	conflictCount map[string]int64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_conflicts_total",
		Help: "Rejected scheduling requests by conflict kind",
	}, []string{"kind"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_transitions_total",
		Help: "Session lifecycle transitions by resulting status",
	}, []string{"status"})

	sessionsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_generated_total",
		Help: "REGULAR sessions materialised by the recurring generator",
	})

	linkFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meeting_link_failures_total",
		Help: "Meeting link issuance failures",
	})

	lockWait := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tutor_lock_wait_seconds",
		Help:    "Time spent waiting for a tutor schedule lock",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 3},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		conflicts, transitions, sessionsGenerated, linkFailures, lockWait, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		conflicts:         conflicts,
		transitions:       transitions,
		sessionsGenerated: sessionsGenerated,
		linkFailures:      linkFailures,
		lockWait:          lockWait,
		conflictCount:     make(map[string]int64),
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordConflict counts a rejected scheduling request by error code.
func (m *MetricsService) RecordConflict(kind string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(kind).Inc()
	m.mu.Lock()
	m.conflictCount[kind]++
	m.mu.Unlock()
}

// RecordTransition counts a session reaching status.
func (m *MetricsService) RecordTransition(status models.SessionStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(status)).Inc()
}

// RecordGenerated counts sessions created by the generator.
func (m *MetricsService) RecordGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsGenerated.Add(float64(n))
	atomic.AddUint64(&m.generatedCount, uint64(n))
}

// RecordMeetingLinkFailure counts a failed link issuance.
func (m *MetricsService) RecordMeetingLinkFailure() {
	if m == nil {
		return
	}
	m.linkFailures.Inc()
	atomic.AddUint64(&m.linkFailureCount, 1)
}

// ObserveLockWait records how long a caller waited for a tutor lock.
func (m *MetricsService) ObserveLockWait(duration time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics for the summary endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if hits+misses > 0 {
		cacheRatio = float64(hits) / float64(hits+misses)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	m.mu.Lock()
	conflicts := make(map[string]int64, len(m.conflictCount))
	for k, v := range m.conflictCount {
		conflicts[k] = v
	}
	m.mu.Unlock()

	return models.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHitRatio:            cacheRatio,
		SessionsGenerated:        atomic.LoadUint64(&m.generatedCount),
		MeetingLinkFailures:      atomic.LoadUint64(&m.linkFailureCount),
		Conflicts:                conflicts,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
