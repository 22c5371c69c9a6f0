// Package metrics provides Prometheus metrics for the swimrate rating runs.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for a swimrate process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         *prometheus.Registry

	// Ingestion
	resultsIngested prometheus.Counter
	resultsSkipped  *prometheus.CounterVec
	filesIngested   prometheus.Counter
	filesDuplicate  prometheus.Counter
	datasetSwimmers prometheus.Gauge

	// Rating
	recruitsScored     prometheus.Counter
	recruitsNotFound   prometheus.Counter
	recruitsTruncated  prometheus.Counter
	degenerateCohorts  prometheus.Counter
	cohortWindowSize   prometheus.Histogram
	scoringLatency     prometheus.Histogram
	ratingRunDuration  prometheus.Histogram
	workerErrors       prometheus.Counter
	workerCount        prometheus.Gauge
	lastRunRecruits    prometheus.Gauge
	lastRunStandardize prometheus.Gauge

	// Snapshot
	snapshotDuration *prometheus.HistogramVec
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
		namespace:        "swimrate",
		subsystem:        "rating",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		customLabels:     make(map[string]string),
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// Registry returns the registry the manager's metrics live in.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.resultsIngested = m.counter("results_ingested_total", "Result rows recorded into the dataset")
	m.resultsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "results_skipped_total",
		Help:        "Result rows skipped during ingestion by reason",
		ConstLabels: m.customLabels,
	}, []string{"reason"})
	m.filesIngested = m.counter("files_ingested_total", "Result files read")
	m.filesDuplicate = m.counter("files_duplicate_total", "Result files skipped because they were already read")
	m.datasetSwimmers = m.gauge("dataset_swimmers", "Swimmers held in the dataset")

	m.recruitsScored = m.counter("recruits_scored_total", "Recruits that received a raw score")
	m.recruitsNotFound = m.counter("recruits_not_found_total", "Recruits whose identity is missing from the dataset")
	m.recruitsTruncated = m.counter("recruits_truncated_total", "Historical recruits truncated to the age ceiling")
	m.degenerateCohorts = m.counter("degenerate_cohorts_total", "Age-pair cohorts with at most one contributing peer")
	m.cohortWindowSize = m.histogram("cohort_window_size", "Peers in each cohort window",
		[]float64{1, 2, 5, 10, 20, 30, 45, 61})
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Per-recruit scoring latency in milliseconds", m.histogramBuckets)
	m.ratingRunDuration = m.histogram("run_duration_milliseconds", "Whole rating run duration in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Scoring jobs that returned an error")
	m.workerCount = m.gauge("worker_count", "Workers used by the last rating run")
	m.lastRunRecruits = m.gauge("last_run_recruits", "Recruits in the last ranked report")
	m.lastRunStandardize = m.gauge("last_run_standardization_stddev", "Standard deviation of raw scores in the last run")

	m.snapshotDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_duration_milliseconds",
		Help:        "Snapshot save/load duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"op"})
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format, for the node-exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// Default returns the process-wide manager.
func Default() *Manager {
	return globalManager
}

// WriteTextfile writes the process-wide metrics to path.
func WriteTextfile(path string) error {
	return globalManager.WriteTextfile(path)
}

// RecordResultIngested increments the ingested rows counter.
func RecordResultIngested() {
	globalManager.resultsIngested.Inc()
}

// RecordResultSkipped increments the skipped rows counter for reason.
func RecordResultSkipped(reason string) {
	globalManager.resultsSkipped.WithLabelValues(reason).Inc()
}

// RecordFileIngested increments the files read counter.
func RecordFileIngested() {
	globalManager.filesIngested.Inc()
}

// RecordFileDuplicate increments the duplicate files counter.
func RecordFileDuplicate() {
	globalManager.filesDuplicate.Inc()
}

// UpdateDatasetSwimmers sets the dataset size.
func UpdateDatasetSwimmers(count int) {
	globalManager.datasetSwimmers.Set(float64(count))
}

// RecordRecruitScored increments the scored recruits counter.
func RecordRecruitScored() {
	globalManager.recruitsScored.Inc()
}

// RecordRecruitNotFound increments the not-found recruits counter.
func RecordRecruitNotFound() {
	globalManager.recruitsNotFound.Inc()
}

// RecordRecruitTruncated increments the truncated historical recruits counter.
func RecordRecruitTruncated() {
	globalManager.recruitsTruncated.Inc()
}

// RecordDegenerateCohort increments the small-sample guard counter.
func RecordDegenerateCohort() {
	globalManager.degenerateCohorts.Inc()
}

// RecordCohortWindowSize observes the size of one cohort window.
func RecordCohortWindowSize(size int) {
	globalManager.cohortWindowSize.Observe(float64(size))
}

// RecordScoringLatency records per-recruit scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordRunDuration records a whole rating run in milliseconds.
func RecordRunDuration(latencyMs float64) {
	globalManager.ratingRunDuration.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateWorkerCount sets the worker count of the current run.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateLastRun records the size and spread of the last ranked report.
func UpdateLastRun(recruits int, stddev float64) {
	globalManager.lastRunRecruits.Set(float64(recruits))
	globalManager.lastRunStandardize.Set(stddev)
}

// RecordSnapshotDuration records a snapshot operation ("save" or "load").
func RecordSnapshotDuration(op string, latencyMs float64) {
	globalManager.snapshotDuration.WithLabelValues(op).Observe(latencyMs)
}
