package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	decisions   *prometheus.CounterVec
	trades      *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	confidence  *prometheus.GaugeVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeforge_decisions_total",
				Help: "Aggregated decisions by symbol, direction and policy",
			},
			[]string{"symbol", "direction", "policy"},
		),
		trades: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeforge_trades_total",
				Help: "Executed paper trades by symbol and action",
			},
			[]string{"symbol", "action"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradeforge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		confidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradeforge_decision_confidence",
				Help: "Confidence of the latest aggregated decision per symbol",
			},
			[]string{"symbol"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradeforge_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradeforge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordDecision records one aggregated decision.
func (r *Recorder) RecordDecision(symbol, direction, policy string) {
	r.decisions.WithLabelValues(symbol, direction, policy).Inc()
}

// RecordTrade records one executed paper trade.
func (r *Recorder) RecordTrade(symbol, action string) {
	r.trades.WithLabelValues(symbol, action).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordConfidence records the latest decision confidence for a symbol.
func (r *Recorder) RecordConfidence(symbol string, confidence float64) {
	r.confidence.WithLabelValues(symbol).Set(confidence)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
