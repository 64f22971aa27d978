// Package metrics provides Prometheus metrics for the dxrating service.
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

// Manager manages all Prometheus metrics for the dxrating service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Rating engine
	analysesTotal        prometheus.Counter
	recordsAnalyzed      *prometheus.CounterVec
	recordsSkipped       *prometheus.CounterVec
	analysisLatency      prometheus.Histogram
	ratingComputations   prometheus.Counter
	unresolvedTiers      prometheus.Counter
	recommendationsTotal prometheus.Counter

	// Song database
	songLookupMisses  prometheus.Counter
	songsByChartType  *prometheus.GaugeVec
	pipelineStageTime *prometheus.HistogramVec
	cachedDatabases   prometheus.Gauge
	databaseBuilds    *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
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
		namespace:        "dxrating",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every instrument
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: labels,
		})
	}
	counterVec := func(name, help string, keys ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: labels,
		}, keys)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: labels,
		})
	}

	m.analysesTotal = counter("analyses_total", "Total number of rating analyses performed")
	m.recordsAnalyzed = counterVec("records_analyzed_total", "Chart records rated, by bucket", "bucket")
	m.recordsSkipped = counterVec("records_skipped_total", "Chart records dropped before rating, by reason", "reason")
	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analysis_latency_milliseconds",
		Help:        "Histogram of rating analysis latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})
	m.ratingComputations = counter("rating_computations_total", "Total number of single-chart rating computations")
	m.unresolvedTiers = counter("unresolved_tiers_total", "Achievements for which no tier matched")
	m.recommendationsTotal = counter("recommendations_total", "Total number of recommended level tables computed")

	m.songLookupMisses = counter("song_lookup_misses_total", "Song database lookups that found nothing")
	m.songsByChartType = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "songs",
		Help:        "Songs held by the most recently built database, by chart type",
		ConstLabels: labels,
	}, []string{"chart_type"})
	m.pipelineStageTime = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "pipeline_stage_milliseconds",
		Help:        "Time spent in each song database build stage",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"stage"})
	m.cachedDatabases = gauge("cached_databases", "Number of built song databases held in memory")
	m.databaseBuilds = counterVec("database_builds_total", "Song database builds, by outcome", "outcome")

	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "HTTP errors by endpoint, method and type",
		"endpoint", "method", "error_type")
	m.errorRateByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")

	m.systemMemoryUsage = gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = gauge("system_goroutines", "Number of goroutines")
}

// Rating engine functions.

// RecordAnalysis counts one analysis and its latency.
func RecordAnalysis(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.analysesTotal.Inc()
	globalManager.analysisLatency.Observe(latencyMs)
}

// RecordRecordsAnalyzed adds n rated records to bucket ("new" or "old").
func RecordRecordsAnalyzed(bucket string, n int) {
	globalManager.recordsAnalyzed.WithLabelValues(bucket).Add(float64(n))
}

// RecordRecordSkipped counts a record dropped for reason.
func RecordRecordSkipped(reason string) {
	globalManager.recordsSkipped.WithLabelValues(reason).Inc()
}

// RecordRatingComputation counts one rating formula evaluation.
func RecordRatingComputation() {
	globalManager.ratingComputations.Inc()
}

// RecordUnresolvedTier counts an achievement that matched no tier.
func RecordUnresolvedTier() {
	globalManager.unresolvedTiers.Inc()
}

// RecordRecommendation counts one recommended-level computation.
func RecordRecommendation() {
	globalManager.recommendationsTotal.Inc()
}

// Song database functions.

// RecordSongLookupMiss counts a failed song lookup.
func RecordSongLookupMiss() {
	globalManager.songLookupMisses.Inc()
}

// UpdateSongCounts sets the song gauges for both chart types.
func UpdateSongCounts(dx, standard int) {
	globalManager.songsByChartType.WithLabelValues("dx").Set(float64(dx))
	globalManager.songsByChartType.WithLabelValues("standard").Set(float64(standard))
}

// RecordPipelineStage records the duration of one build stage.
func RecordPipelineStage(stage string, durationMs float64) {
	globalManager.pipelineStageTime.WithLabelValues(stage).Observe(durationMs)
}

// UpdateCachedDatabases sets the number of cached song databases.
func UpdateCachedDatabases(count int) {
	globalManager.cachedDatabases.Set(float64(count))
}

// RecordDatabaseBuild counts a build attempt with outcome "ok" or "error".
func RecordDatabaseBuild(outcome string) {
	globalManager.databaseBuilds.WithLabelValues(outcome).Inc()
}

// HTTP functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// System functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval returns how often gauges should be refreshed by callers.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
