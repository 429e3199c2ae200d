package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/relay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/relay/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/relay/internal/httpserver/mw"
)

const defaultRouteTimeout = 5 * time.Second

func init() { Register("proxy", registerProxy) }

// registerProxy wires registration and forwarding. Only registration gets a
// handler timeout: forwarded bodies stream for as long as the upstream and
// the client keep going.
func registerProxy(r chi.Router, d deps.Deps) {
	timeout := d.RouteTimeout
	if timeout <= 0 {
		timeout = defaultRouteTimeout
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		r.With(
			middleware.Timeout(timeout),
			mw.RequireBearer(d.Authorizer, d.Logger),
		).Post("/proxy", handlers.Register(d))

		r.Get("/proxy/{id}", handlers.Forward(d))
	})
}
