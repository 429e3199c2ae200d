package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/relay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/relay/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/relay/internal/httpserver/mw"
)

func init() { Register("ops", registerOps) }

// registerOps wires health, readiness, infra and metrics. Everything but
// /healthz is limited to AllowedCIDRS.
func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		r.Get("/readyz", handlers.Readyz(d))
		r.Get("/infra", handlers.Infra(d))
		if d.Metrics != nil {
			r.Handle("/metrics", d.Metrics.Handler())
		}
	})
}
