// Package metrics provides Prometheus metrics for the turnover prediction service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Latency buckets in milliseconds. Feature building and local inference are
// sub-millisecond; batch uploads and remote calls take much longer.
var defaultBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Employees per batch upload.
var batchSizeBuckets = []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Predictions
	predictions        *prometheus.CounterVec
	riskLevels         *prometheus.CounterVec
	predictionErrors   *prometheus.CounterVec
	featureLatency     prometheus.Histogram
	unknownCategories  *prometheus.CounterVec
	batchRows          *prometheus.CounterVec
	batchLatency       prometheus.Histogram
	batchSize          prometheus.Histogram
	inferenceLatency   *prometheus.HistogramVec
	inferenceErrors    *prometheus.CounterVec
	modelLoaded        prometheus.Gauge
	breakerState       *prometheus.GaugeVec
	breakerRequests    *prometheus.CounterVec
	predictionLogs     *prometheus.CounterVec
	predictionLogTotal prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// Log queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueue           prometheus.Counter
	queueDequeue           prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Log workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record* helpers

// Custom registry so /metrics only exposes service collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "turnover",
		subsystem:        "",
		histogramBuckets: defaultBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		// Collectors still work but are never exposed.
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval is how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string { return m.metricPrefix + n }

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
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		m.counterOpts("predictions_total", "Predictions served by source and label"),
		[]string{"source", "label"},
	)
	m.riskLevels = auto.NewCounterVec(
		m.counterOpts("risk_level_total", "Predictions by risk band"),
		[]string{"level"},
	)
	m.predictionErrors = auto.NewCounterVec(
		m.counterOpts("prediction_errors_total", "Failed predictions by source and error type"),
		[]string{"source", "error_type"},
	)
	m.featureLatency = auto.NewHistogram(
		m.histogramOpts("feature_build_latency_milliseconds", "Feature pipeline latency in milliseconds", m.histogramBuckets),
	)
	m.unknownCategories = auto.NewCounterVec(
		m.counterOpts("unknown_categories_total", "Categorical values outside the training vocabulary by field"),
		[]string{"field"},
	)
	m.batchRows = auto.NewCounterVec(
		m.counterOpts("batch_rows_total", "Batch rows by stage (received, fused, dropped)"),
		[]string{"stage"},
	)
	m.batchLatency = auto.NewHistogram(
		m.histogramOpts("batch_latency_milliseconds", "End to end batch prediction latency in milliseconds", m.histogramBuckets),
	)
	m.batchSize = auto.NewHistogram(
		m.histogramOpts("batch_size_employees", "Employees scored per batch upload", batchSizeBuckets),
	)
	m.inferenceLatency = auto.NewHistogramVec(
		m.histogramOpts("inference_latency_milliseconds", "Model inference latency in milliseconds", m.histogramBuckets),
		[]string{"model"},
	)
	m.inferenceErrors = auto.NewCounterVec(
		m.counterOpts("inference_errors_total", "Model inference failures"),
		[]string{"model"},
	)
	m.modelLoaded = auto.NewGauge(
		m.gaugeOpts("model_loaded", "1 when a model is available for inference"),
	)
	m.breakerState = auto.NewGaugeVec(
		m.gaugeOpts("circuit_breaker_state", "Circuit breaker state (0 closed, 1 half-open, 2 open)"),
		[]string{"name"},
	)
	m.breakerRequests = auto.NewCounterVec(
		m.counterOpts("circuit_breaker_requests_total", "Requests through the circuit breaker by result"),
		[]string{"name", "result"},
	)
	m.predictionLogs = auto.NewCounterVec(
		m.counterOpts("prediction_logs_total", "Prediction log writes by store and result"),
		[]string{"store", "result"},
	)
	m.predictionLogTotal = auto.NewGauge(
		m.gaugeOpts("prediction_logs_stored", "Prediction logs currently held by the store"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "HTTP errors by type and severity"),
		[]string{"error_type", "severity"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("log_queue_size", "Prediction logs waiting to be written"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("log_queue_capacity", "Prediction log queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("log_queue_utilization_ratio", "Queue size / capacity"))
	m.queueEnqueue = auto.NewCounter(m.counterOpts("log_queue_enqueue_total", "Prediction logs enqueued"))
	m.queueDequeue = auto.NewCounter(m.counterOpts("log_queue_dequeue_total", "Prediction logs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(
		m.counterOpts("log_queue_enqueue_errors_total", "Prediction logs dropped because the queue was full or closed"),
	)
	m.queueProcessingLatency = auto.NewHistogram(
		m.histogramOpts("log_queue_wait_milliseconds", "Time a log spent in the queue in milliseconds", m.histogramBuckets),
	)

	m.workerCount = auto.NewGauge(m.gaugeOpts("log_worker_count", "Configured log writers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("log_worker_active_count", "Log writers currently running"))
	m.workerIdleCount = auto.NewGauge(m.gaugeOpts("log_worker_idle_count", "Log writers not running"))
	m.workerMessagesPerSecond = auto.NewGauge(m.gaugeOpts("log_worker_messages_per_second", "Average logs written per second"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("log_worker_latency_milliseconds", "Store write latency in milliseconds", m.histogramBuckets),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("log_worker_errors_total", "Failed store writes"))

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordPrediction counts one served prediction.
func RecordPrediction(source, label, level string) {
	globalManager.predictions.WithLabelValues(source, label).Inc()
	globalManager.riskLevels.WithLabelValues(level).Inc()
}

// RecordPredictionError counts a failed prediction request.
func RecordPredictionError(source, errorType string) {
	globalManager.predictionErrors.WithLabelValues(source, errorType).Inc()
}

// RecordFeatureLatency records feature pipeline latency in milliseconds.
func RecordFeatureLatency(latencyMs float64) {
	globalManager.featureLatency.Observe(latencyMs)
}

// RecordUnknownCategories adds n unknown values seen for field.
func RecordUnknownCategories(field string, n int) {
	if n > 0 {
		globalManager.unknownCategories.WithLabelValues(field).Add(float64(n))
	}
}

// RecordBatchRows counts batch rows at a stage: received, fused or dropped.
func RecordBatchRows(stage string, n int) {
	if n > 0 {
		globalManager.batchRows.WithLabelValues(stage).Add(float64(n))
	}
}

// RecordBatchLatency records end to end batch latency in milliseconds.
func RecordBatchLatency(latencyMs float64) {
	globalManager.batchLatency.Observe(latencyMs)
}

// RecordBatchSize observes how many employees one upload scored.
func RecordBatchSize(n int) {
	globalManager.batchSize.Observe(float64(n))
}

// RefreshInterval is how often the process should refresh polled gauges.
func RefreshInterval() time.Duration { return globalManager.refreshInterval }

// RecordInference records a model call.
func RecordInference(model string, latencyMs float64, err error) {
	globalManager.inferenceLatency.WithLabelValues(model).Observe(latencyMs)
	if err != nil {
		globalManager.inferenceErrors.WithLabelValues(model).Inc()
	}
}

// UpdateModelLoaded flags model availability.
func UpdateModelLoaded(loaded bool) {
	if loaded {
		globalManager.modelLoaded.Set(1)
		return
	}
	globalManager.modelLoaded.Set(0)
}

// UpdateBreakerState sets the breaker gauge: 0 closed, 1 half-open, 2 open.
func UpdateBreakerState(name string, state int) {
	globalManager.breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordBreakerRequest counts a call through a breaker.
func RecordBreakerRequest(name, result string) {
	globalManager.breakerRequests.WithLabelValues(name, result).Inc()
}

// RecordPredictionLog counts a store write: result is "ok" or "error".
func RecordPredictionLog(store, result string) {
	globalManager.predictionLogs.WithLabelValues(store, result).Inc()
}

// UpdatePredictionLogsStored sets the number of logs held by the store.
func UpdatePredictionLogsStored(n int) {
	globalManager.predictionLogTotal.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records how long an item waited.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
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

// UpdateWorkerMessagesPerSecond sets the average throughput.
func UpdateWorkerMessagesPerSecond(rate float64) {
	globalManager.workerMessagesPerSecond.Set(rate)
}

// RecordWorkerProcessingLatency records store write latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateSystemMemoryUsage sets heap usage in bytes.
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

// GetRegistry returns the registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
