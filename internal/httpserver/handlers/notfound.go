package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/relay/internal/domain"
	"github.com/MrSnakeDoc/relay/internal/httpserver/respond"
)

// NotFound answers unmatched routes and methods.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	respond.Error(w, domain.NotFound())
}
