package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksIngested      *prometheus.CounterVec
	ticksPublished     *prometheus.CounterVec
	snapshotsGenerated *prometheus.CounterVec
	broadcastSends     *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	lastPrice          *prometheus.GaugeVec
	latency            *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbot_ticks_ingested_total",
				Help: "Total number of ticks decoded from the exchange stream",
			},
			[]string{"exchange", "symbol"},
		),
		ticksPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbot_ticks_published_total",
				Help: "Total number of ticks published to the bus",
			},
			[]string{"bus", "symbol"},
		),
		snapshotsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbot_snapshots_generated_total",
				Help: "Total number of market snapshots generated",
			},
			[]string{"symbol", "regime"},
		),
		broadcastSends: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbot_broadcast_sends_total",
				Help: "Total number of snapshot frames pushed to subscribers",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finbot_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finbot_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTickIngested records a tick decoded from the exchange stream.
func (r *Recorder) RecordTickIngested(exchange, symbol string) {
	r.ticksIngested.WithLabelValues(exchange, symbol).Inc()
}

// RecordTickPublished records a tick published to the bus.
func (r *Recorder) RecordTickPublished(bus, symbol string) {
	r.ticksPublished.WithLabelValues(bus, symbol).Inc()
}

// RecordSnapshotGenerated records a generated snapshot.
func (r *Recorder) RecordSnapshotGenerated(symbol, regime string) {
	r.snapshotsGenerated.WithLabelValues(symbol, regime).Inc()
}

// RecordBroadcast records snapshot frames pushed to sessions.
func (r *Recorder) RecordBroadcast(symbol string, sessions int) {
	r.broadcastSends.WithLabelValues(symbol).Add(float64(sessions))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
