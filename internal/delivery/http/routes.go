package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

// Routes mounts the command surface. A nil registry leaves /metrics unmounted.
func (h *HTTPHandler) Routes(registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.HTTPMiddleware(h.l))

	r.Get("/health", h.HealthCheck)
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/close", h.CloseSession)
			r.Post("/rotate", h.Rotate)

			r.Post("/participants", h.Join)
			r.Route("/participants/{participantId}", func(r chi.Router) {
				r.Get("/", h.GetParticipant)
				r.Delete("/", h.Leave)
				r.Post("/payment", h.MarkPaid)
				r.Post("/approval", h.Approve)
				r.Get("/admission", h.CheckAdmission)
			})
		})

		r.Post("/matches/{matchId}/result", h.ReportResult)
		r.Post("/court-passes/validate", h.ValidateCourtPass)
	})

	return r
}
