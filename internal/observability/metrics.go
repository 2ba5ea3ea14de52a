package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the message pipeline.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	messagesTotal   *prometheus.CounterVec
	remoteErrors    *prometheus.CounterVec
	syncDuration    prometheus.Histogram
	syncedRecords   prometheus.Counter
	queueSize       prometheus.Gauge
	parseConfidence prometheus.Histogram
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_messages_total",
				Help: "Messages processed by outcome.",
			},
			[]string{"outcome"},
		),
		remoteErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smsledger_remote_errors_total",
				Help: "Remote store errors by kind.",
			},
			[]string{"kind"},
		),
		syncDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smsledger_sync_duration_seconds",
				Help:    "Duration of offline queue sync passes.",
				Buckets: prometheus.DefBuckets,
			},
		),
		syncedRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "smsledger_synced_records_total",
				Help: "Queued records successfully synced to the remote store.",
			},
		),
		queueSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "smsledger_queue_size",
				Help: "Records currently waiting in the offline queue.",
			},
		),
		parseConfidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smsledger_parse_confidence",
				Help:    "Confidence of accepted parses.",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
			},
		),
	}
}

// IncrMessage increments the message counter for an outcome
// (accepted, rejected, duplicate, error).
func (m *Metrics) IncrMessage(outcome string) {
	m.messagesTotal.WithLabelValues(outcome).Inc()
}

// IncrRemoteError increments the remote error counter for a kind
// (unavailable, auth, quota, other).
func (m *Metrics) IncrRemoteError(kind string) {
	m.remoteErrors.WithLabelValues(kind).Inc()
}

// RecordSync records the duration of a sync pass and the number of
// records it delivered.
func (m *Metrics) RecordSync(d time.Duration, synced int) {
	m.syncDuration.Observe(d.Seconds())
	m.syncedRecords.Add(float64(synced))
}

// SetQueueSize updates the offline queue gauge.
func (m *Metrics) SetQueueSize(n int) {
	m.queueSize.Set(float64(n))
}

// RecordConfidence records the confidence of an accepted parse.
func (m *Metrics) RecordConfidence(c float64) {
	m.parseConfidence.Observe(c)
}
