package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
)

// AppMetrics holds the metrics exported by the API server and the worker.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	// Pipeline
	StageDuration       HistogramVec
	DocumentsProcessed  CounterVec
	ParseFailuresTotal  CounterVec
	EntitiesPerDocument HistogramVec
	DocumentDensity     HistogramVec

	// Messaging
	MessagesConsumed CounterVec

	// Infrastructure
	CacheLookups      CounterVec
	HealthCheckStatus GaugeVec
}

var (
	httpDurationBuckets  = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	stageDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60}
	entityCountBuckets   = []float64{0, 1, 5, 10, 25, 50, 100, 250, 500}
	densityBuckets       = []float64{0.01, 0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1}
)

// NewAppMetrics registers every application metric on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request latency", httpDurationBuckets, "method", "path"),

		StageDuration:       collector.RegisterHistogram("pipeline_stage_duration_seconds", "Duration of a pipeline stage", stageDurationBuckets, "stage"),
		DocumentsProcessed:  collector.RegisterCounter("documents_processed_total", "Documents processed by result status", "status"),
		ParseFailuresTotal:  collector.RegisterCounter("parse_failures_total", "Documents whose parse produced no rows"),
		EntitiesPerDocument: collector.RegisterHistogram("entities_per_document", "Entities extracted per document", entityCountBuckets),
		DocumentDensity:     collector.RegisterHistogram("graph_density", "Co-occurrence graph density per document", densityBuckets),

		MessagesConsumed: collector.RegisterCounter("messages_consumed_total", "Kafka messages handled by the worker", "topic", "outcome"),

		CacheLookups:      collector.RegisterCounter("cache_lookups_total", "Result cache lookups", "outcome"),
		HealthCheckStatus: collector.RegisterGauge("health_check_status", "Dependency health (1 healthy, 0 unhealthy)", "component"),
	}
}

// ---------------------------------------------------------------------------
// Pipeline telemetry
// ---------------------------------------------------------------------------

// ObserveStage records the duration of one pipeline stage.
func (m *AppMetrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// DocumentProcessed counts a finished document by its result status.
func (m *AppMetrics) DocumentProcessed(status legislation.Status) {
	m.DocumentsProcessed.WithLabelValues(string(status)).Inc()
}

func (m *AppMetrics) ParseFailed() {
	m.ParseFailuresTotal.WithLabelValues().Inc()
}

func (m *AppMetrics) EntitiesExtracted(n int) {
	m.EntitiesPerDocument.WithLabelValues().Observe(float64(n))
}

func (m *AppMetrics) GraphDensity(v float64) {
	m.DocumentDensity.WithLabelValues().Observe(v)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// RecordHTTPRequest records one served request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordMessage counts a consumed message; outcome is "ok" or "error".
func (m *AppMetrics) RecordMessage(topic string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.MessagesConsumed.WithLabelValues(topic, outcome).Inc()
}

// RecordCacheLookup counts a hit or a miss.
func (m *AppMetrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

func (m *AppMetrics) SetHealth(component string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

//Personal.AI order the ending
