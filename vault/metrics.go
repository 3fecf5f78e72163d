package vault

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/warp/asset-vault/generic"
)

// Metrics counts invocations by operation and outcome. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the vault collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vault",
			Name:      "operations_total",
			Help:      "Vault invocations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vault",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in one vault invocation, including the store transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"operation"}),
	}
	reg.MustRegister(m.operations, m.duration)
	return m
}

func (m *Metrics) observe(op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// outcome is "ok", the snake_case error code name, or "error" for
// failures without a code.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	code := generic.CodeOf(err)
	if code == 0 {
		return "error"
	}
	return strings.ReplaceAll(code.String(), " ", "_")
}
