package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gabrielpaulo/atrium-booking/internal/observability"
	"github.com/gabrielpaulo/atrium-booking/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(rl))

	r.Get("/v1/resources/{id}/slots", h.GetSlotStatus)

	r.Group(func(r chi.Router) {
		r.Use(RequireIdempotencyKey)
		r.Post("/v1/holds", h.CreateHold)
		r.Post("/v1/reservations", h.CreateReservation)
	})

	r.Post("/v1/holds/{id}/confirm", h.ConfirmHold)
	r.Post("/v1/holds/{id}/release", h.ReleaseHold)
	r.Post("/v1/payments/callback", h.PaymentCallback)

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(AdminMiddleware(h.cfg.AdminToken))
		r.Post("/blocks", h.CreateBlock)
		r.Delete("/blocks/{id}", h.DeleteBlock)
	})

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
