// Package metrics defines the prometheus instrumentation for the owning
// process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. All counters are registered against
// the registry passed to New, so tests can use isolated registries.
type Metrics struct {
	registry *prometheus.Registry

	Ingests        *prometheus.CounterVec
	SessionsOpened prometheus.Counter
	Verifications  *prometheus.CounterVec
	AccessGrants   prometheus.Counter
	AccessDenials  *prometheus.CounterVec
	ToolExecutions *prometheus.CounterVec
}

// New creates and registers the service metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagetoll",
			Name:      "ingests_total",
			Help:      "Content ingestion attempts by outcome.",
		}, []string{"outcome"}),
		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagetoll",
			Name:      "payment_sessions_opened_total",
			Help:      "Payment sessions issued.",
		}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagetoll",
			Name:      "payment_verifications_total",
			Help:      "Payment verification attempts by result.",
		}, []string{"result"}),
		AccessGrants: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pagetoll",
			Name:      "access_grants_total",
			Help:      "Content releases after verified payment.",
		}),
		AccessDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagetoll",
			Name:      "access_denials_total",
			Help:      "Denied access attempts by reason.",
		}, []string{"reason"}),
		ToolExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pagetoll",
			Name:      "capability_executions_total",
			Help:      "Capability executions by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.Ingests,
		m.SessionsOpened,
		m.Verifications,
		m.AccessGrants,
		m.AccessDenials,
		m.ToolExecutions,
	)
	return m
}

// Handler exposes the registry in prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
