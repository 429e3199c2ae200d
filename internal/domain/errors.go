package domain

import (
	"errors"
	"net/http"
)

// Kind classifies errors that cross the HTTP boundary.
type Kind int

const (
	KindBadRequest Kind = iota
	KindUnauthorized
	KindNotFound
	KindInternal
)

// ServiceError is the only error shape handlers render to clients.
// Message is safe to show; anything sensitive stays in the logs.
type ServiceError struct {
	Kind    Kind
	Message string
}

func (e *ServiceError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return "not found"
	case KindInternal:
		return "internal error"
	case KindUnauthorized:
		return "unauthorized: " + e.Message
	default:
		return "bad request: " + e.Message
	}
}

// Status maps the kind to its HTTP status code.
func (e *ServiceError) Status() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func BadRequest(msg string) *ServiceError   { return &ServiceError{Kind: KindBadRequest, Message: msg} }
func Unauthorized(msg string) *ServiceError { return &ServiceError{Kind: KindUnauthorized, Message: msg} }
func NotFound() *ServiceError               { return &ServiceError{Kind: KindNotFound} }
func Internal() *ServiceError               { return &ServiceError{Kind: KindInternal} }

// AsServiceError extracts a ServiceError from err. Anything else becomes an
// internal error so that unexpected failures never leak their text.
func AsServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return Internal()
}
