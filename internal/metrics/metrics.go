package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch and item outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSucceeded = "succeeded"
)

// Metrics holds the pipeline's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	BatchesTotal    *prometheus.CounterVec
	ItemsTotal      *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DownloadedBytes prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		BatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "virtualtourist_batches_total",
				Help: "Total number of photo batches by outcome",
			},
			[]string{"outcome"},
		),

		ItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "virtualtourist_items_total",
				Help: "Total number of batch items by outcome",
			},
			[]string{"outcome"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "virtualtourist_http_request_duration_seconds",
				Help:    "Duration of outbound Flickr requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),

		DownloadedBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "virtualtourist_downloaded_bytes_total",
				Help: "Total number of image bytes downloaded",
			},
		),
	}
}

// Registry exposes the registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) BatchFinished(outcome string) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ItemFinished(outcome string) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRequest records how long an outbound request took
func (m *Metrics) ObserveRequest(op string, started time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) AddDownloadedBytes(n int) {
	if m == nil {
		return
	}
	m.DownloadedBytes.Add(float64(n))
}

// WriteTextfile writes all metrics in the text exposition format, suitable
// for the node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
