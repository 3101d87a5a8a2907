package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "moip"

// StatusError labels oracle calls that returned an error.
const StatusError = "error"

// Metrics groups the collectors fed by sessions and runs. A nil *Metrics records nothing.
type Metrics struct {
	OracleCalls    *prometheus.CounterVec
	OracleDuration *prometheus.HistogramVec
	Solutions      *prometheus.CounterVec
	FrontSize      *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Number of single-objective oracle calls by method and outcome.",
		}, []string{"method", "status"}),
		OracleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_call_duration_seconds",
			Help:      "Latency of single-objective oracle calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"method"}),
		Solutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solutions_found_total",
			Help:      "Raw solutions returned by enumerations before archiving.",
		}, []string{"method"}),
		FrontSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "front_size",
			Help:      "Size of the last archived front per project and method.",
		}, []string{"project", "method"}),
	}
	if reg != nil {
		reg.MustRegister(m.OracleCalls, m.OracleDuration, m.Solutions, m.FrontSize)
	}
	return m
}

// ObserveSolve records one oracle call.
func (m *Metrics) ObserveSolve(method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.OracleCalls.WithLabelValues(method, status).Inc()
	m.OracleDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveRun records the outcome of one enumeration.
func (m *Metrics) ObserveRun(project, method string, raw, front int) {
	if m == nil {
		return
	}
	m.Solutions.WithLabelValues(method).Add(float64(raw))
	m.FrontSize.WithLabelValues(project, method).Set(float64(front))
}
