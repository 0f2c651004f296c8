// Package metrics provides Prometheus metrics for the activities service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons accepted by RecordRejection.
const (
	ReasonNotFound          = "not_found"
	ReasonAlreadyRegistered = "already_registered"
	ReasonNotRegistered     = "not_registered"
	ReasonInvalidRequest    = "invalid_request"
)

var knownReasons = map[string]struct{}{ //nolint:gochecknoglobals // fixed label set
	ReasonNotFound:          {},
	ReasonAlreadyRegistered: {},
	ReasonNotRegistered:     {},
	ReasonInvalidRequest:    {},
}

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Roster
	signups        *prometheus.CounterVec
	unregistration *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	rosterSize     *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Change pipeline
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueDropped      prometheus.Counter
	workerCount       prometheus.Gauge
	changesProcessed  prometheus.Counter
	journalEntries    prometheus.Gauge
	processingLatency prometheus.Histogram

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // served on /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mergington",
		subsystem:        "activities",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.signups = auto.NewCounterVec(m.counterOpts("signups_total", "Successful signups by activity"), []string{"activity"})
	m.unregistration = auto.NewCounterVec(m.counterOpts("unregistrations_total", "Successful unregistrations by activity"), []string{"activity"})
	m.rejections = auto.NewCounterVec(m.counterOpts("rejections_total", "Rejected roster operations by reason"), []string{"operation", "reason"})
	m.rosterSize = auto.NewGaugeVec(m.gaugeOpts("roster_size", "Current participant count by activity"), []string{"activity"})

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("change_queue_size", "Roster changes waiting to be journaled"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("change_queue_capacity", "Capacity of the roster change queue"))
	m.queueDropped = auto.NewCounter(m.counterOpts("change_queue_dropped_total", "Roster changes dropped because the queue was full or closed"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Journal workers running"))
	m.changesProcessed = auto.NewCounter(m.counterOpts("changes_processed_total", "Roster changes written to the journal"))
	m.journalEntries = auto.NewGauge(m.gaugeOpts("journal_entries", "Entries currently held by the journal"))
	m.processingLatency = auto.NewHistogram(m.histogramOpts("change_processing_latency_milliseconds",
		"Delay between a roster change and its journal write in milliseconds", m.histogramBuckets))

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"Average GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}))
}

// RecordSignup counts a signup and sets the activity's roster size.
func (m *Manager) RecordSignup(activity string, rosterSize int) {
	m.signups.WithLabelValues(activity).Inc()
	m.rosterSize.WithLabelValues(activity).Set(float64(rosterSize))
}

// RecordUnregister counts an unregistration and sets the activity's roster size.
func (m *Manager) RecordUnregister(activity string, rosterSize int) {
	m.unregistration.WithLabelValues(activity).Inc()
	m.rosterSize.WithLabelValues(activity).Set(float64(rosterSize))
}

// RecordRejection counts a rejected operation. Unknown reasons are refused
// to keep label cardinality bounded.
func (m *Manager) RecordRejection(operation, reason string) error {
	if _, ok := knownReasons[reason]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRejection, reason)
	}
	m.rejections.WithLabelValues(operation, reason).Inc()
	return nil
}

// RecordSignup counts a signup on the global manager.
func RecordSignup(activity string, rosterSize int) { globalManager.RecordSignup(activity, rosterSize) }

// RecordUnregister counts an unregistration on the global manager.
func RecordUnregister(activity string, rosterSize int) {
	globalManager.RecordUnregister(activity, rosterSize)
}

// RecordRejection counts a rejection on the global manager.
func RecordRejection(operation, reason string) error {
	return globalManager.RecordRejection(operation, reason)
}

// UpdateRosterSize sets the participant gauge for an activity.
func UpdateRosterSize(activity string, size int) {
	globalManager.rosterSize.WithLabelValues(activity).Set(float64(size))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueDropped counts a change that could not be enqueued.
func RecordQueueDropped() { globalManager.queueDropped.Inc() }

// UpdateWorkerCount sets the number of running journal workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordChangeProcessed counts a journaled change and its end-to-end delay.
func RecordChangeProcessed(latencyMs float64) {
	globalManager.changesProcessed.Inc()
	globalManager.processingLatency.Observe(latencyMs)
}

// UpdateJournalEntries sets the journal length gauge.
func UpdateJournalEntries(n int) { globalManager.journalEntries.Set(float64(n)) }

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the registry that backs /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
