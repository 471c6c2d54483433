// Package metrics provides Prometheus metrics for the scoutlens dashboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exposes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Core reconciliation metrics
	reconciles        prometheus.Counter
	reconcileErrors   *prometheus.CounterVec
	averageDrift      prometheus.Histogram
	classifications   *prometheus.CounterVec
	classifyErrors    prometheus.Counter
	partitionedStats  *prometheus.CounterVec
	partitionFailures *prometheus.CounterVec

	// Dashboard builds
	dashboardsBuilt  prometheus.Counter
	buildErrors      prometheus.Counter
	buildLatency     prometheus.Histogram
	dashboardsStored prometheus.Gauge

	// Queue and workers
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueEnqueued  prometheus.Counter
	queueRejected  *prometheus.CounterVec
	workerCount    prometheus.Gauge
	workerFailures prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "scoutlens",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.reconciles = m.counter("reconciles_total", "Subjective metrics reconciled into an average")
	m.reconcileErrors = m.counterVec("reconcile_errors_total", "Subjective metrics that could not be reconciled", "reason")
	m.averageDrift = m.histogram("average_drift", "Absolute gap between supplied and recomputed averages",
		[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1})
	m.classifications = m.counterVec("classifications_total", "Headline ratings classified, by band", "band")
	m.classifyErrors = m.counter("classify_errors_total", "Headline ratings rejected as non-finite")
	m.partitionedStats = m.counterVec("partitioned_stats_total", "Objective stats partitioned, by class", "class")
	m.partitionFailures = m.counterVec("partition_failures_total", "Objective sections that could not be partitioned", "reason")

	m.dashboardsBuilt = m.counter("builds_total", "Dashboards built")
	m.buildErrors = m.counter("build_errors_total", "Dashboard builds that failed outright")
	m.buildLatency = m.histogram("build_latency_milliseconds", "Dashboard build latency in milliseconds", m.histogramBuckets)
	m.dashboardsStored = m.gauge("stored", "Dashboards currently held in the repository")

	m.queueSize = m.gauge("queue_size", "Build jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum build jobs the queue accepts")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Build jobs accepted")
	m.queueRejected = m.counterVec("queue_rejected_total", "Build jobs rejected", "reason")
	m.workerCount = m.gauge("worker_count", "Build workers running")
	m.workerFailures = m.counter("worker_failures_total", "Build jobs a worker could not complete")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total", "HTTP responses with status >= 400", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Reconciliation.

// RecordReconcile counts a successful reconciliation.
func (m *Manager) RecordReconcile() { m.reconciles.Inc() }

// RecordReconcileError counts a failed reconciliation.
func (m *Manager) RecordReconcileError(reason string) { m.reconcileErrors.WithLabelValues(reason).Inc() }

// RecordAverageDrift observes the supplied-vs-recomputed gap.
func (m *Manager) RecordAverageDrift(drift float64) { m.averageDrift.Observe(drift) }

// RecordClassification counts a classified headline rating.
func (m *Manager) RecordClassification(band string) { m.classifications.WithLabelValues(band).Inc() }

// RecordClassifyError counts a rejected rating.
func (m *Manager) RecordClassifyError() { m.classifyErrors.Inc() }

// RecordPartition counts partitioned stats per class.
func (m *Manager) RecordPartition(common, unique int) {
	m.partitionedStats.WithLabelValues("common").Add(float64(common))
	m.partitionedStats.WithLabelValues("unique").Add(float64(unique))
}

// RecordPartitionFailure counts an objective section left unavailable.
func (m *Manager) RecordPartitionFailure(reason string) {
	m.partitionFailures.WithLabelValues(reason).Inc()
}

// Builds.

// RecordBuild counts a finished dashboard and its latency.
func (m *Manager) RecordBuild(latencyMs float64) {
	m.dashboardsBuilt.Inc()
	m.buildLatency.Observe(latencyMs)
}

// RecordBuildError counts a dashboard that could not be built.
func (m *Manager) RecordBuildError() { m.buildErrors.Inc() }

// UpdateDashboardsStored sets the repository size.
func (m *Manager) UpdateDashboardsStored(n int) { m.dashboardsStored.Set(float64(n)) }

// Queue and workers.

// UpdateQueueSize sets the queue depth.
func (m *Manager) UpdateQueueSize(n int) { m.queueSize.Set(float64(n)) }

// UpdateQueueCapacity sets the queue bound.
func (m *Manager) UpdateQueueCapacity(n int) { m.queueCapacity.Set(float64(n)) }

// RecordQueueEnqueue counts an accepted job.
func (m *Manager) RecordQueueEnqueue() { m.queueEnqueued.Inc() }

// RecordQueueRejected counts a rejected job.
func (m *Manager) RecordQueueRejected(reason string) { m.queueRejected.WithLabelValues(reason).Inc() }

// UpdateWorkerCount sets the number of running workers.
func (m *Manager) UpdateWorkerCount(n int) { m.workerCount.Set(float64(n)) }

// RecordWorkerFailure counts a job a worker gave up on.
func (m *Manager) RecordWorkerFailure() { m.workerFailures.Inc() }

// HTTP.

// RecordHTTPRequest counts a request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError counts an error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType string) {
	m.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) { m.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func (m *Manager) UpdateSystemGoroutineCount(n int) { m.systemGoroutineCount.Set(float64(n)) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) { m.systemGCPauseTime.Observe(pauseMs) }

// Global returns the process-wide manager backed by the custom registry.
func Global() *Manager { return globalManager }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
