// Package respond writes JSON bodies and the uniform error envelope.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/relay/internal/domain"
)

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error renders err as {"status", "message"}. Errors that are not a
// domain.ServiceError are reported as a bare internal error.
func Error(w http.ResponseWriter, err error) {
	se := domain.AsServiceError(err)
	JSON(w, se.Status(), errorBody{
		Status:  se.Status(),
		Message: se.Error(),
	})
}
