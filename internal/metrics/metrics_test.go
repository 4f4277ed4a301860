package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAttempt(t *testing.T) {
	before := testutil.ToFloat64(GatewayAttempts.WithLabelValues("stripe", "payment", OutcomeSuccess))
	ObserveAttempt("stripe", "payment", OutcomeSuccess, 120*time.Millisecond)
	after := testutil.ToFloat64(GatewayAttempts.WithLabelValues("stripe", "payment", OutcomeSuccess))
	if after-before != 1 {
		t.Errorf("attempts delta = %v, want 1", after-before)
	}
}

func TestSkippedAttemptHasNoLatency(t *testing.T) {
	before := testutil.CollectAndCount(GatewayLatency)
	ObserveAttempt("skip-only-gateway", "payment", OutcomeSkipped, 0)
	if got := testutil.CollectAndCount(GatewayLatency); got != before {
		t.Errorf("latency series = %d, want %d", got, before)
	}
}
