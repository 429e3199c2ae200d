// Package auth checks bearer credentials on the write path.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingHeader   = errors.New("missing Authorization header")
	ErrMalformedHeader = errors.New("bad Authorization header")
	ErrBadScheme       = errors.New("bad Bearer token format")
	ErrBadToken        = errors.New("bad token")
)

// Authorizer validates "Authorization: Bearer <token>" against a single
// shared secret.
type Authorizer struct {
	secret []byte
}

// New returns an Authorizer for secret. An empty secret is a configuration
// bug, so it panics instead of letting every request fail.
func New(secret string) *Authorizer {
	if secret == "" {
		panic("auth: empty secret")
	}
	return &Authorizer{secret: []byte(secret)}
}

// Authorize checks the request's Authorization header.
func (a *Authorizer) Authorize(r *http.Request) error {
	values, ok := r.Header[http.CanonicalHeaderKey("Authorization")]
	if !ok || len(values) == 0 {
		return ErrMissingHeader
	}
	return a.Check(values[0])
}

// Check validates a raw header value. The token comparison runs in constant
// time with respect to the token contents.
func (a *Authorizer) Check(header string) error {
	if !isText(header) {
		return ErrMalformedHeader
	}

	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return ErrBadScheme
	}

	if subtle.ConstantTimeCompare([]byte(token), a.secret) != 1 {
		return ErrBadToken
	}
	return nil
}

// isText mirrors what a strict header decoder accepts: valid UTF-8 with no
// control characters other than horizontal tab.
func isText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r != '\t' && unicode.IsControl(r) {
			return false
		}
	}
	return true
}
