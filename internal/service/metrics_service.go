package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the negotiation
// workflow. All record methods are nil-safe so instrumentation stays optional.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	commandsTotal   *prometheus.CounterVec
	conflictsTotal  *prometheus.CounterVec
	decisionsTotal  *prometheus.CounterVec
	publishesTotal  prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
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

	commandsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_commands_total",
		Help: "Version-guarded commands by scope, type and outcome",
	}, []string{"scope", "type", "outcome"})

	conflictsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_conflicts_total",
		Help: "Constraint conflicts by kind",
	}, []string{"kind"})

	decisionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "change_request_decisions_total",
		Help: "Change request decisions by resulting status",
	}, []string{"status"})

	publishesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_publishes_total",
		Help: "Completed publish cycles",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, commandsTotal, conflictsTotal, decisionsTotal, publishesTotal, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		commandsTotal:   commandsTotal,
		conflictsTotal:  conflictsTotal,
		decisionsTotal:  decisionsTotal,
		publishesTotal:  publishesTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCommand counts one version-guarded command execution.
func (m *MetricsService) RecordCommand(scope, commandType, outcome string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(scope, commandType, outcome).Inc()
}

// RecordConflict counts a constraint conflict by kind.
func (m *MetricsService) RecordConflict(kind string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(kind).Inc()
}

// RecordDecision counts a change-request decision.
func (m *MetricsService) RecordDecision(status string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(status).Inc()
}

// RecordPublish counts a completed publish cycle.
func (m *MetricsService) RecordPublish() {
	if m == nil {
		return
	}
	m.publishesTotal.Inc()
}

// RecordCacheOperation counts read-through cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
