package common

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// InferenceMetrics records remote tagger calls.  The serving client reports
// through it so that the Prometheus and noop variants are interchangeable.
type InferenceMetrics interface {
	RecordInference(model string, duration time.Duration, err error)
}

const metricsPrefix = "legisgraph_ner_"

var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// ---------------------------------------------------------------------------
// Prometheus
// ---------------------------------------------------------------------------

type prometheusInferenceMetrics struct {
	latency *prometheus.HistogramVec
	total   *prometheus.CounterVec
}

// NewPrometheusInferenceMetrics registers the tagger metrics with registerer
// (the default registerer when nil).
func NewPrometheusInferenceMetrics(registerer prometheus.Registerer) (InferenceMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &prometheusInferenceMetrics{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricsPrefix + "inference_duration_milliseconds",
			Help:    "Histogram of remote tagger latency in milliseconds.",
			Buckets: defaultLatencyBuckets,
		}, []string{"model_name"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "inference_total",
			Help: "Total number of remote tagger calls.",
		}, []string{"model_name", "status"}),
	}
	for _, c := range []prometheus.Collector{m.latency, m.total} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusInferenceMetrics) RecordInference(model string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.latency.WithLabelValues(model).Observe(float64(d) / float64(time.Millisecond))
	m.total.WithLabelValues(model, status).Inc()
}

// ---------------------------------------------------------------------------
// Noop
// ---------------------------------------------------------------------------

type noopInferenceMetrics struct{}

// NewNoopInferenceMetrics returns metrics that discard every observation.
func NewNoopInferenceMetrics() InferenceMetrics { return noopInferenceMetrics{} }

func (noopInferenceMetrics) RecordInference(string, time.Duration, error) {}

//Personal.AI order the ending
