// Package metrics exposes poll pipeline counters for Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the pipeline instruments. Construct once per process
// and share; the vectors are safe for concurrent use.
type Metrics struct {
	PollsTotal    *prometheus.CounterVec
	PollDuration  *prometheus.HistogramVec
	RecordsParsed *prometheus.GaugeVec
	AlertsRaised  *prometheus.CounterVec
}

// Poll outcome label values.
const (
	OutcomeOK          = "ok"
	OutcomeUnreachable = "unreachable"
	OutcomeError       = "error"
)

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetmon",
			Name:      "polls_total",
			Help:      "Device polls by brand and outcome.",
		}, []string{"brand", "outcome"}),
		PollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fleetmon",
			Name:      "poll_duration_seconds",
			Help:      "Wall time of a full device poll.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"brand"}),
		RecordsParsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fleetmon",
			Name:      "records_parsed",
			Help:      "ONU records extracted in the most recent poll.",
		}, []string{"device"}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetmon",
			Name:      "alerts_raised_total",
			Help:      "Alerts raised by type.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.PollsTotal, m.PollDuration, m.RecordsParsed, m.AlertsRaised)
	return m
}
