package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stripsProcessed *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastBPM         *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		stripsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsetrace_strips_processed_total",
				Help: "Total number of ECG strips processed, by outcome",
			},
			[]string{"source", "result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsetrace_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastBPM: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pulsetrace_last_bpm",
				Help: "Last computed mean heart rate for a source",
			},
			[]string{"source"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulsetrace_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordStripProcessed records a processed strip with its outcome.
func (r *Recorder) RecordStripProcessed(source, result string) {
	r.stripsProcessed.WithLabelValues(source, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastBPM records the last computed heart rate for a source.
func (r *Recorder) RecordLastBPM(source string, bpm float64) {
	r.lastBPM.WithLabelValues(source).Set(bpm)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
