// Package metrics provides Prometheus metrics for the hangout matchmaking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Percentage buckets for match scores. Scores over three criteria land on
// 0, 33, 50, 67 or 100.
var percentageBuckets = []float64{0, 25, 34, 50, 67, 75, 99, 100} //nolint:gochecknoglobals // fixed bucket layout

// Pool size buckets for eligible-event counts.
var poolBuckets = []float64{0, 1, 2, 5, 10, 25, 50, 100, 250} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the hangout service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Matchmaking
	requestsSubmitted prometheus.Counter
	requestsDuplicate prometheus.Counter
	assignments       *prometheus.CounterVec
	resolutions       *prometheus.CounterVec
	eligiblePoolSize  prometheus.Histogram
	matchPercentage   prometheus.Histogram
	pointsAwarded     prometheus.Counter
	pendingRequests   prometheus.Gauge
	catalogSize       prometheus.Gauge

	// Storage and ledger
	storeRecords   *prometheus.GaugeVec
	storeLatency   *prometheus.HistogramVec
	storeConflicts prometheus.Counter
	ledgerLatency  *prometheus.HistogramVec

	// Audit queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueDropped           prometheus.Counter
	queueProcessingLatency prometheus.Histogram
	auditDelivered         *prometheus.CounterVec
	auditDeliveryErrors    *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

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
		namespace:        "hangout",
		subsystem:        "matchmaking",
		histogramBuckets: prometheus.DefBuckets,
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

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	m.requestsSubmitted = m.counter("requests_submitted_total", "Total number of meetup requests accepted for matching")
	m.requestsDuplicate = m.counter("requests_duplicate_total", "Total number of repeated submissions answered from the dedupe index")
	m.assignments = m.counterVec("assignments_total", "Assignment attempts by outcome", "outcome")
	m.resolutions = m.counterVec("resolutions_total", "Suggestion resolutions by decision and outcome", "decision", "outcome")
	m.eligiblePoolSize = m.histogram("eligible_pool_size", "Number of eligible events offered for a request", poolBuckets)
	m.matchPercentage = m.histogram("match_percentage", "Match percentage of committed assignments", percentageBuckets)
	m.pointsAwarded = m.counter("points_awarded_total", "Total points credited to requesters")
	m.pendingRequests = m.gauge("pending_requests", "Requests waiting for an assignment")
	m.catalogSize = m.gauge("catalog_size", "Events currently in the catalog")

	m.storeRecords = m.gaugeVec("store_records", "Stored records by kind", "kind")
	m.storeLatency = m.histogramVec("store_latency_milliseconds", "Store operation latency in milliseconds", "backend", "op")
	m.storeConflicts = m.counter("store_version_conflicts_total", "Compare-and-swap writes rejected on a stale version")
	m.ledgerLatency = m.histogramVec("ledger_latency_milliseconds", "Points ledger latency in milliseconds", "backend", "op")

	m.queueSize = m.gauge("audit_queue_size", "Audit entries waiting for delivery")
	m.queueCapacity = m.gauge("audit_queue_capacity", "Audit queue capacity")
	m.queueUtilization = m.gauge("audit_queue_utilization_ratio", "Audit queue size divided by capacity")
	m.queueEnqueued = m.counter("audit_queue_enqueued_total", "Audit entries enqueued")
	m.queueDequeued = m.counter("audit_queue_dequeued_total", "Audit entries dequeued")
	m.queueDropped = m.counter("audit_queue_dropped_total", "Audit entries dropped because the queue was full or closed")
	m.queueProcessingLatency = m.histogram("audit_queue_latency_milliseconds", "Time from enqueue to dequeue in milliseconds", m.histogramBuckets)
	m.auditDelivered = m.counterVec("audit_delivered_total", "Audit entries delivered by sink", "sink")
	m.auditDeliveryErrors = m.counterVec("audit_delivery_errors_total", "Audit delivery failures by sink", "sink")

	m.workerCount = m.gauge("worker_count", "Configured audit workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Audit workers currently delivering an entry")
	m.workerIdleCount = m.gauge("worker_idle_count", "Audit workers waiting for work")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Audit delivery latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Audit deliveries that failed in a worker")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Most recent GC pause in milliseconds", m.histogramBuckets)
}

// RecordRequestSubmitted increments the accepted submissions counter.
func RecordRequestSubmitted() {
	globalManager.requestsSubmitted.Inc()
}

// RecordRequestDuplicate increments the duplicate submissions counter.
func RecordRequestDuplicate() {
	globalManager.requestsDuplicate.Inc()
}

// RecordAssignment counts an assignment attempt. outcome is "ok" or an error kind.
func RecordAssignment(outcome string) {
	globalManager.assignments.WithLabelValues(outcome).Inc()
}

// RecordResolution counts an accept or decline.
func RecordResolution(decision, outcome string) {
	globalManager.resolutions.WithLabelValues(decision, outcome).Inc()
}

// RecordEligiblePoolSize observes how many events were eligible for a request.
func RecordEligiblePoolSize(n int) {
	globalManager.eligiblePoolSize.Observe(float64(n))
}

// RecordMatchPercentage observes the score of a committed assignment.
func RecordMatchPercentage(p int) {
	globalManager.matchPercentage.Observe(float64(p))
}

// RecordPointsAwarded adds delta to the awarded points counter.
func RecordPointsAwarded(delta int64) {
	if delta > 0 {
		globalManager.pointsAwarded.Add(float64(delta))
	}
}

// UpdatePendingRequests sets the pending queue length.
func UpdatePendingRequests(n int) {
	globalManager.pendingRequests.Set(float64(n))
}

// UpdateCatalogSize sets the catalog size.
func UpdateCatalogSize(n int) {
	globalManager.catalogSize.Set(float64(n))
}

// UpdateStoreRecords sets the number of stored records of a kind.
func UpdateStoreRecords(kind string, n int) {
	globalManager.storeRecords.WithLabelValues(kind).Set(float64(n))
}

// RecordStoreLatency observes a store operation.
func RecordStoreLatency(backend, op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// RecordStoreConflict counts a rejected compare-and-swap.
func RecordStoreConflict() {
	globalManager.storeConflicts.Inc()
}

// RecordLedgerLatency observes a ledger operation.
func RecordLedgerLatency(backend, op string, latencyMs float64) {
	globalManager.ledgerLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// UpdateQueueSize sets the current audit queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the audit queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the audit queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueDropped increments the dropped entries counter.
func RecordQueueDropped() {
	globalManager.queueDropped.Inc()
}

// RecordQueueProcessingLatency records time spent waiting in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// RecordAuditDelivered counts a delivered audit entry.
func RecordAuditDelivered(sink string) {
	globalManager.auditDelivered.WithLabelValues(sink).Inc()
}

// RecordAuditDeliveryError counts a failed audit delivery.
func RecordAuditDeliveryError(sink string) {
	globalManager.auditDeliveryErrors.WithLabelValues(sink).Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
