// Package metrics provides Prometheus metrics for the droidpad bridge.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the bridge.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsOpened   prometheus.Counter
	sessionsClosed   *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
	sessionsDuration prometheus.Histogram

	// Control events
	eventsReceived  *prometheus.CounterVec
	eventsForwarded *prometheus.CounterVec
	eventsSwallowed prometheus.Counter
	eventsDropped   *prometheus.CounterVec
	latchEngaged    prometheus.Counter

	// Virtual devices
	deviceSyncs       prometheus.Counter
	deviceSyncLatency prometheus.Histogram
	deviceErrors      *prometheus.CounterVec
	slotsInUse        prometheus.Gauge
	slotsCapacity     prometheus.Gauge

	// Per-session queues
	queueDepth         prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Per-session workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// WebSocket transport
	wsMessages     *prometheus.CounterVec
	wsDecodeErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "droidpad",
		subsystem:        "bridge",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval is how often gauges fed by polling should be updated.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording helpers do anything.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.sessionsOpened = auto.NewCounter(m.counterOpts("sessions_opened_total", "Total number of client sessions opened"))
	m.sessionsClosed = auto.NewCounterVec(m.counterOpts("sessions_closed_total", "Total number of client sessions closed by reason"), []string{"reason"})
	m.sessionsActive = auto.NewGauge(m.gaugeOpts("sessions_active", "Number of live client sessions"))
	m.sessionsDuration = auto.NewHistogram(m.histogramOpts("session_duration_seconds", "Session lifetime in seconds",
		[]float64{1, 10, 60, 300, 900, 1800, 3600, 7200}))

	m.eventsReceived = auto.NewCounterVec(m.counterOpts("events_received_total", "Control events received from clients"), []string{"kind"})
	m.eventsForwarded = auto.NewCounterVec(m.counterOpts("events_forwarded_total", "Control events applied to a virtual device"), []string{"kind"})
	m.eventsSwallowed = auto.NewCounter(m.counterOpts("events_swallowed_total", "Digital edges swallowed by the tap latch"))
	m.eventsDropped = auto.NewCounterVec(m.counterOpts("events_dropped_total", "Control events dropped before reaching a device"), []string{"reason"})
	m.latchEngaged = auto.NewCounter(m.counterOpts("latch_engaged_total", "Number of double taps that latched a control down"))

	m.deviceSyncs = auto.NewCounter(m.counterOpts("device_sync_total", "Number of device synchronize calls that flushed a frame"))
	m.deviceSyncLatency = auto.NewHistogram(m.histogramOpts("device_sync_latency_milliseconds", "Latency of device synchronize in milliseconds", m.histogramBuckets))
	m.deviceErrors = auto.NewCounterVec(m.counterOpts("device_errors_total", "Virtual device failures by operation"), []string{"op"})
	m.slotsInUse = auto.NewGauge(m.gaugeOpts("device_slots_in_use", "Device slots currently issued"))
	m.slotsCapacity = auto.NewGauge(m.gaugeOpts("device_slots_capacity", "Size of the device slot pool"))

	m.queueDepth = auto.NewGauge(m.gaugeOpts("queue_depth", "Events waiting across all session queues"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Capacity of each session queue"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of events enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of events dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of enqueue errors"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of running session workers"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Time to push one event through a session in milliseconds", m.histogramBuckets))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))

	m.wsMessages = auto.NewCounterVec(m.counterOpts("ws_messages_total", "WebSocket messages decoded by message type"), []string{"type"})
	m.wsDecodeErrors = auto.NewCounter(m.counterOpts("ws_decode_errors_total", "WebSocket messages that failed to decode"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})
	m.errorLatency = auto.NewHistogramVec(m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

func on() bool { return globalManager.enabled.Load() }

// RecordSessionOpened counts a new session and bumps the active gauge.
func RecordSessionOpened() {
	if !on() {
		return
	}
	globalManager.sessionsOpened.Inc()
	globalManager.sessionsActive.Inc()
}

// RecordSessionClosed counts a finished session by reason and records its lifetime.
func RecordSessionClosed(reason string, lifetime time.Duration) {
	if !on() {
		return
	}
	globalManager.sessionsClosed.WithLabelValues(reason).Inc()
	globalManager.sessionsActive.Dec()
	globalManager.sessionsDuration.Observe(lifetime.Seconds())
}

// RecordEventReceived counts an event handed to a session.
func RecordEventReceived(kind string) {
	if on() {
		globalManager.eventsReceived.WithLabelValues(kind).Inc()
	}
}

// RecordEventForwarded counts an event applied to a device.
func RecordEventForwarded(kind string) {
	if on() {
		globalManager.eventsForwarded.WithLabelValues(kind).Inc()
	}
}

// RecordEventSwallowed counts an edge the latch did not forward.
func RecordEventSwallowed() {
	if on() {
		globalManager.eventsSwallowed.Inc()
	}
}

// RecordEventDropped counts an event discarded before the device.
func RecordEventDropped(reason string) {
	if on() {
		globalManager.eventsDropped.WithLabelValues(reason).Inc()
	}
}

// RecordLatchEngaged counts a control entering the held state.
func RecordLatchEngaged() {
	if on() {
		globalManager.latchEngaged.Inc()
	}
}

// RecordDeviceSync records one flushed frame.
func RecordDeviceSync(latencyMs float64) {
	if !on() {
		return
	}
	globalManager.deviceSyncs.Inc()
	globalManager.deviceSyncLatency.Observe(latencyMs)
}

// RecordDeviceError counts a device failure for op (open, apply, sync, close).
func RecordDeviceError(op string) {
	if on() {
		globalManager.deviceErrors.WithLabelValues(op).Inc()
	}
}

// UpdateSlotsInUse sets the number of issued device slots.
func UpdateSlotsInUse(n int) {
	if on() {
		globalManager.slotsInUse.Set(float64(n))
	}
}

// UpdateSlotsCapacity sets the device slot pool size.
func UpdateSlotsCapacity(n int) {
	if on() {
		globalManager.slotsCapacity.Set(float64(n))
	}
}

// UpdateQueueCapacity sets the per-session queue capacity.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue records a successful enqueue.
func RecordQueueEnqueue() {
	if !on() {
		return
	}
	globalManager.queueEnqueueRate.Inc()
	globalManager.queueDepth.Inc()
}

// RecordQueueDequeue records a dequeue.
func RecordQueueDequeue() {
	if !on() {
		return
	}
	globalManager.queueDequeueRate.Inc()
	globalManager.queueDepth.Dec()
}

// RecordQueueDiscard removes n undelivered events from the depth gauge.
func RecordQueueDiscard(n int) {
	if on() && n > 0 {
		globalManager.queueDepth.Sub(float64(n))
	}
}

// RecordQueueEnqueueError records a failed enqueue.
func RecordQueueEnqueueError() {
	if on() {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// UpdateWorkerCount adds delta to the running worker gauge.
func UpdateWorkerCount(delta int) {
	if on() {
		globalManager.workerCount.Add(float64(delta))
	}
}

// RecordWorkerProcessingLatency records how long one event took.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if on() {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError counts a worker that stopped on an error.
func RecordWorkerError() {
	if on() {
		globalManager.workerErrorRate.Inc()
	}
}

// RecordWSMessage counts a decoded WebSocket message by type.
func RecordWSMessage(msgType string) {
	if on() {
		globalManager.wsMessages.WithLabelValues(msgType).Inc()
	}
}

// RecordWSDecodeError counts a message that could not be decoded.
func RecordWSDecodeError() {
	if on() {
		globalManager.wsDecodeErrors.Inc()
	}
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent increments the error counter by component.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType increments the error counter by type.
func RecordErrorByType(errorType, severity string) {
	if on() {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint increments the error counter by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorLatency records error latency.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if on() {
		globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
	}
}

// UpdateSystemMemoryUsage updates the system memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// Default returns the global manager.
func Default() *Manager {
	return globalManager
}

// SetEnabled turns the package-level helpers on or off. It is safe to call
// while sessions are recording.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
