package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for outbound backend calls.
var (
	callsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "client_calls_in_flight",
		Help: "In-flight backend calls.",
	})

	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_calls_total",
			Help: "Total number of backend calls.",
		},
		[]string{"op", "outcome"},
	)

	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_call_duration_seconds",
			Help:    "Backend call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "outcome"},
	)
)

// Init registers the call metrics in the default registry.
func Init() {
	prometheus.MustRegister(callsInFlight, callsTotal, callDuration)
}

// StartCall marks a call as in flight and returns a finish function
// that records duration and outcome ("ok", "error", "network", ...).
func StartCall(op string) func(outcome string) {
	callsInFlight.Inc()
	start := time.Now()
	return func(outcome string) {
		callsInFlight.Dec()
		callsTotal.WithLabelValues(op, outcome).Inc()
		callDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	}
}
