package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// API route paths
const (
	HealthPath    = "/healthz"
	MetricsPath   = "/metrics"
	BatchesPath   = "/api/v1/batches"
	VerifyPath    = "/api/v1/verify"
	AnalyticsPath = "/api/v1/analytics"
)

// NewRouter wires the registry handlers onto a chi router with the
// standard middleware stack. The request timeout propagates through the
// request context into gateway and store calls.
func NewRouter(h *RegistryHandler, metricsHandler http.Handler, requestTimeout time.Duration) *chi.Mux {
	if requestTimeout <= 0 {
		requestTimeout = 12 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Heartbeat(HealthPath))

	r.Post(BatchesPath, h.RegisterBatch)
	r.Get(BatchesPath, h.ListBatches)
	r.Post(VerifyPath, h.VerifyBatch)
	r.Get(AnalyticsPath, h.Analytics)

	if metricsHandler != nil {
		r.Method(http.MethodGet, MetricsPath, metricsHandler)
	}

	return r
}
