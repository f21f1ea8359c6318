// Package metrics provides Prometheus metrics for the saferoute risk engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the risk engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Pipeline metrics
	pipelineRuns        prometheus.Counter
	pipelineErrors      prometheus.Counter
	pipelineDuration    prometheus.Histogram
	recordsTotal        *prometheus.GaugeVec
	invalidRecords      *prometheus.GaugeVec
	districtTableSize   prometheus.Gauge
	hourlyTableSize     prometheus.Gauge
	snapshotLastUnix    prometheus.Gauge

	// Route query metrics
	routeQueries       *prometheus.CounterVec
	routeQueryDuration prometheus.Histogram
	fallbackSegments   *prometheus.CounterVec

	// Store metrics
	storeSaveLatency prometheus.Histogram
	storeLoadLatency prometheus.Histogram
	storeErrors      prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "saferoute",
		subsystem:        "risk",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.pipelineRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_runs_total",
		Help:      "Total number of completed aggregation pipeline runs",
	})

	m.pipelineErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_errors_total",
		Help:      "Total number of failed pipeline runs",
	})

	m.pipelineDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_duration_milliseconds",
		Help:      "Histogram of full pipeline run duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.recordsTotal = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "incident_records",
			Help:      "Incident records seen by the last pipeline run, by validity",
		},
		[]string{"validity"},
	)

	m.invalidRecords = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "invalid_records",
			Help:      "Invalid incident records from the last pipeline run, by reason",
		},
		[]string{"reason"},
	)

	m.districtTableSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "district_summary_rows",
		Help:      "Rows in the current district risk summary table",
	})

	m.hourlyTableSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "hourly_summary_rows",
		Help:      "Rows in the current hourly risk summary table",
	})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_generated_unix",
		Help:      "Unix timestamp of the currently loaded risk snapshot",
	})

	m.routeQueries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "route_queries_total",
			Help:      "Total route risk queries, by resulting label",
		},
		[]string{"label"},
	)

	m.routeQueryDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "route_query_duration_milliseconds",
		Help:      "Route risk query duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.fallbackSegments = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fallback_segments_total",
			Help:      "Route segments that used a fallback value, by kind",
		},
		[]string{"kind"},
	)

	m.storeSaveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_save_latency_milliseconds",
		Help:      "Risk summary store save latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeLoadLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_load_latency_milliseconds",
		Help:      "Risk summary store load latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total store read/write failures",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_errors_total",
			Help:      "Total HTTP error responses by endpoint and error type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Package-level helpers operating on the global manager.

// RecordPipelineRun increments the completed pipeline run counter.
func RecordPipelineRun() {
	globalManager.pipelineRuns.Inc()
}

// RecordPipelineError increments the failed pipeline run counter.
func RecordPipelineError() {
	globalManager.pipelineErrors.Inc()
}

// RecordPipelineDuration records a full pipeline run duration.
func RecordPipelineDuration(durationMs float64) {
	globalManager.pipelineDuration.Observe(durationMs)
}

// UpdateRecordCounts sets the valid/invalid record gauges for the last run.
func UpdateRecordCounts(valid, invalid int) {
	globalManager.recordsTotal.WithLabelValues("valid").Set(float64(valid))
	globalManager.recordsTotal.WithLabelValues("invalid").Set(float64(invalid))
}

// UpdateInvalidReason sets the invalid-record gauge for one reason.
func UpdateInvalidReason(reason string, count int) {
	globalManager.invalidRecords.WithLabelValues(reason).Set(float64(count))
}

// UpdateTableSizes sets the summary table row gauges.
func UpdateTableSizes(districtRows, hourlyRows int) {
	globalManager.districtTableSize.Set(float64(districtRows))
	globalManager.hourlyTableSize.Set(float64(hourlyRows))
}

// UpdateSnapshotTimestamp records when the current snapshot was generated.
func UpdateSnapshotTimestamp(unix int64) {
	globalManager.snapshotLastUnix.Set(float64(unix))
}

// RecordRouteQuery increments the route query counter for a label.
func RecordRouteQuery(label string) {
	globalManager.routeQueries.WithLabelValues(label).Inc()
}

// RecordRouteQueryDuration records a route query duration.
func RecordRouteQueryDuration(durationMs float64) {
	globalManager.routeQueryDuration.Observe(durationMs)
}

// RecordFallbackSegments adds to the fallback segment counter for a kind.
func RecordFallbackSegments(kind string, count int) {
	if count > 0 {
		globalManager.fallbackSegments.WithLabelValues(kind).Add(float64(count))
	}
}

// RecordStoreSaveLatency records a store save latency.
func RecordStoreSaveLatency(latencyMs float64) {
	globalManager.storeSaveLatency.Observe(latencyMs)
}

// RecordStoreLoadLatency records a store load latency.
func RecordStoreLoadLatency(latencyMs float64) {
	globalManager.storeLoadLatency.Observe(latencyMs)
}

// RecordStoreError increments the store failure counter.
func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage updates the allocated memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
