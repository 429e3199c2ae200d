package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/relay/internal/auth"
	"github.com/MrSnakeDoc/relay/internal/domain"
	"github.com/MrSnakeDoc/relay/internal/httpserver/respond"
	"github.com/MrSnakeDoc/relay/internal/logger"
)

// RequireBearer rejects requests whose bearer token does not match the
// configured secret with a 401 envelope.
func RequireBearer(a *auth.Authorizer, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := a.Authorize(r); err != nil {
				log.Info("unauthorized request",
					logger.String("path", r.URL.Path),
					logger.String("remote_ip", r.RemoteAddr),
					logger.String("reason", err.Error()))
				respond.Error(w, domain.Unauthorized(err.Error()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
