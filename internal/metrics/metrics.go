// Package metrics holds the prometheus collectors for gateway traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt outcomes
const (
	OutcomeSuccess = "success"
	OutcomeDecline = "decline"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

var (
	// GatewayAttempts counts adapter calls by gateway, operation and outcome.
	GatewayAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payments",
		Name:      "gateway_attempts_total",
		Help:      "Payment gateway attempts by gateway, operation and outcome.",
	}, []string{"gateway", "operation", "outcome"})

	// GatewayLatency observes adapter call latency.
	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "payments",
		Name:      "gateway_request_duration_seconds",
		Help:      "Latency of payment gateway calls.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"gateway", "operation"})

	// Failovers counts payments that needed more than one gateway.
	Failovers = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "payments",
		Name:      "failovers_total",
		Help:      "Payments that moved past the first gateway in the attempt queue.",
	})

	// Exhausted counts payments where every queued gateway failed.
	Exhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "payments",
		Name:      "gateways_exhausted_total",
		Help:      "Payments where every gateway in the attempt queue failed.",
	})

	// LogWriteFailures counts swallowed transaction log write errors.
	LogWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "payments",
		Name:      "transaction_log_failures_total",
		Help:      "Transaction log writes that failed and were discarded.",
	})
)

// ObserveAttempt records one adapter call.
func ObserveAttempt(gateway, operation, outcome string, elapsed time.Duration) {
	GatewayAttempts.WithLabelValues(gateway, operation, outcome).Inc()
	if outcome != OutcomeSkipped {
		GatewayLatency.WithLabelValues(gateway, operation).Observe(elapsed.Seconds())
	}
}
