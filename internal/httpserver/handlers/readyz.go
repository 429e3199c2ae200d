package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/relay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/relay/internal/httpserver/respond"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz reports ready once the store and forwarder are wired. Redis is
// optional and never gates readiness.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := d.Store != nil && d.Forwarder != nil && d.Authorizer != nil
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(w, status, readyzResponse{Ready: ready})
	}
}
