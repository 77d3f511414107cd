// Package metrics provides Prometheus metrics for the scoring-table service.
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

// Lookup outcomes.
const (
	OutcomeMatched  = "matched"
	OutcomeFallback = "fallback"
	OutcomeNoData   = "no_data"
	OutcomeError    = "error"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Lookup metrics
	lookups       *prometheus.CounterVec
	lookupLatency prometheus.Histogram

	// Table metrics
	tableLoads          *prometheus.CounterVec
	tableLoadDuration   prometheus.Histogram
	tableRows           *prometheus.GaugeVec
	tableEvents         *prometheus.GaugeVec
	nonMonotonicColumns *prometheus.GaugeVec
	unparsableCells     *prometheus.CounterVec
	cleanerRepairs      *prometheus.CounterVec

	// Cache metrics
	cacheHits             prometheus.Counter
	cacheMisses           prometheus.Counter
	cachedTables          prometheus.Gauge
	cacheSnapshotLastUnix prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
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

// Configure rebuilds the global manager on a fresh registry, which
// GetRegistry then returns. Call it at startup before anything records.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scoretable",
		subsystem:        "service",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	// A disabled manager still hands out working collectors, they are just
	// never exposed.
	if !m.enabled {
		m.registry = prometheus.NewRegistry()
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Lookup metrics
	m.lookups = auto.NewCounterVec(
		m.counterOpts("lookups_total", "Total number of score lookups by event kind and outcome"),
		[]string{"kind", "outcome"},
	)

	m.lookupLatency = auto.NewHistogram(
		m.histogramOpts("lookup_latency_milliseconds", "Histogram of lookup latency in milliseconds", m.histogramBuckets),
	)

	// Table metrics
	m.tableLoads = auto.NewCounterVec(
		m.counterOpts("table_loads_total", "Total number of scoring table loads by category and result"),
		[]string{"category", "result"},
	)

	m.tableLoadDuration = auto.NewHistogram(
		m.histogramOpts("table_load_duration_milliseconds", "Time to read, clean and index a scoring table", m.histogramBuckets),
	)

	m.tableRows = auto.NewGaugeVec(
		m.gaugeOpts("table_rows", "Number of scored rows in the loaded table"),
		[]string{"category"},
	)

	m.tableEvents = auto.NewGaugeVec(
		m.gaugeOpts("table_events", "Number of event columns in the loaded table"),
		[]string{"category"},
	)

	m.nonMonotonicColumns = auto.NewGaugeVec(
		m.gaugeOpts("non_monotonic_columns", "Event columns whose records get worse as score increases"),
		[]string{"category"},
	)

	m.unparsableCells = auto.NewCounterVec(
		m.counterOpts("unparsable_cells_total", "Cells present but not parseable as a number"),
		[]string{"category"},
	)

	m.cleanerRepairs = auto.NewCounterVec(
		m.counterOpts("cleaner_repairs_total", "Cells rewritten by the record cleaner, by rule"),
		[]string{"rule"},
	)

	// Cache metrics
	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Table cache hits"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Table cache misses that triggered a load"))
	m.cachedTables = auto.NewGauge(m.gaugeOpts("cached_tables", "Number of tables held in the cache"))
	m.cacheSnapshotLastUnix = auto.NewGauge(
		m.gaugeOpts("cache_snapshot_last_unix", "Unix timestamp of the last cache snapshot publish"),
	)

	// HTTP metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRateLimited = auto.NewCounterVec(
		m.counterOpts("http_rate_limited_total", "Requests rejected by the rate limiter"),
		[]string{"endpoint"},
	)

	// Error metrics
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	// System metrics
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordLookup counts one lookup of an event kind with its outcome.
func RecordLookup(kind, outcome string) {
	globalManager.lookups.WithLabelValues(kind, outcome).Inc()
}

// RecordLookupLatency records lookup latency in milliseconds.
func RecordLookupLatency(latencyMs float64) {
	globalManager.lookupLatency.Observe(latencyMs)
}

// Table Metrics Functions.

// RecordTableLoad counts a table load attempt; result is "ok" or an error type.
func RecordTableLoad(category, result string) {
	globalManager.tableLoads.WithLabelValues(category, result).Inc()
}

// RecordTableLoadDuration records table load duration in milliseconds.
func RecordTableLoadDuration(latencyMs float64) {
	globalManager.tableLoadDuration.Observe(latencyMs)
}

// UpdateTableRows sets the scored row count of a category.
func UpdateTableRows(category string, rows int) {
	globalManager.tableRows.WithLabelValues(category).Set(float64(rows))
}

// UpdateTableEvents sets the event column count of a category.
func UpdateTableEvents(category string, events int) {
	globalManager.tableEvents.WithLabelValues(category).Set(float64(events))
}

// UpdateNonMonotonicColumns sets the non-monotonic column count of a category.
func UpdateNonMonotonicColumns(category string, columns int) {
	globalManager.nonMonotonicColumns.WithLabelValues(category).Set(float64(columns))
}

// RecordUnparsableCells adds n unparsable cells for a category.
func RecordUnparsableCells(category string, n int) {
	if n > 0 {
		globalManager.unparsableCells.WithLabelValues(category).Add(float64(n))
	}
}

// RecordCleanerRepairs adds n repairs made by the named cleaner rule.
func RecordCleanerRepairs(rule string, n int) {
	if n > 0 {
		globalManager.cleanerRepairs.WithLabelValues(rule).Add(float64(n))
	}
}

// Cache Metrics Functions.

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// UpdateCachedTables sets the number of cached tables.
func UpdateCachedTables(count int) {
	globalManager.cachedTables.Set(float64(count))
}

// UpdateCacheSnapshotLastUnix sets the time of the last snapshot publish.
func UpdateCacheSnapshotLastUnix(ts float64) {
	globalManager.cacheSnapshotLastUnix.Set(ts)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(endpoint string) {
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

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

// RefreshInterval returns how often gauge updaters should run.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
