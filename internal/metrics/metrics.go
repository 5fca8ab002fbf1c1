package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medichain"

// Metrics holds the prometheus collectors for the registry services.
type Metrics struct {
	registry *prometheus.Registry

	RegistrationsTotal *prometheus.CounterVec
	MintsTotal         *prometheus.CounterVec
	VerificationsTotal *prometheus.CounterVec
	AuditPublishErrors prometheus.Counter
}

// New creates a registry with process/go collectors plus the domain counters.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		RegistrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Batch registration requests by outcome",
		}, []string{"outcome"}),
		MintsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mints_total",
			Help:      "Ledger mint operations by outcome",
		}, []string{"outcome"}),
		VerificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Completed verification attempts by outcome",
		}, []string{"outcome"}),
		AuditPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_publish_errors_total",
			Help:      "Audit events that could not be published",
		}),
	}
	registry.MustRegister(m.RegistrationsTotal, m.MintsTotal, m.VerificationsTotal, m.AuditPublishErrors)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
