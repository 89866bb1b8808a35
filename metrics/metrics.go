// Package metrics exposes Prometheus instrumentation for admission decisions.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toolink/throttle/middleware"
)

// Outcome label values for the decisions counter.
const (
	OutcomeAllowed   = "allowed"
	OutcomeThrottled = "throttled"
)

// Metrics holds the Prometheus collectors fed by admission events. It
// implements the middleware Recorder interface, so it can be handed straight
// to the transport adapters.
type Metrics struct {
	Decisions *prometheus.CounterVec
	Rejected  *prometheus.CounterVec
}

// New creates the collectors. They stay unregistered until Register is
// called.
func New() *Metrics {
	return &Metrics{
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "throttle_decisions_total",
				Help: "Total number of admission decisions.",
			},
			[]string{"route", "outcome"},
		),
		Rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "throttle_rejected_total",
				Help: "Total number of rejected requests.",
			},
			[]string{"route"},
		),
	}
}

// Register registers the collectors with the given registry.
func (m *Metrics) Register(registry *prometheus.Registry) {
	registry.MustRegister(m.Decisions, m.Rejected)
}

// Handler returns the metrics HTTP handler for the registry.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Record implements the middleware Recorder interface.
func (m *Metrics) Record(_ context.Context, ev middleware.Event) {
	outcome := OutcomeAllowed
	if !ev.Allowed {
		outcome = OutcomeThrottled
		m.Rejected.WithLabelValues(ev.Route).Inc()
	}
	m.Decisions.WithLabelValues(ev.Route, outcome).Inc()
}
