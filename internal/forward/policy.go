package forward

import (
	"net/http"
	"time"
)

// Default policy values.
const (
	DefaultMaxRedirects          = 10
	DefaultDialTimeout           = 10 * time.Second
	DefaultResponseHeaderTimeout = 30 * time.Second
)

// DefaultIgnoredHeaders are never copied from upstream: the server recomputes
// framing and the body is passed through untouched.
var DefaultIgnoredHeaders = []string{"Content-Length", "Content-Encoding"}

// hopByHop headers belong to the upstream connection, not to the response.
var hopByHop = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Policy controls how targets are fetched and relayed.
type Policy struct {
	// MaxRedirects is the number of redirect hops followed before the last
	// 3xx response is returned as-is. Zero disables redirect following.
	MaxRedirects int

	// IgnoredHeaders are dropped from upstream responses.
	IgnoredHeaders []string

	// DialTimeout bounds TCP connection setup.
	DialTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for upstream headers. The body
	// itself is not time-limited; it streams for as long as the client reads.
	ResponseHeaderTimeout time.Duration
}

// DefaultPolicy returns the stock policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRedirects:          DefaultMaxRedirects,
		IgnoredHeaders:        append([]string(nil), DefaultIgnoredHeaders...),
		DialTimeout:           DefaultDialTimeout,
		ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
	}
}

// normalize fills zero values with defaults. Negative redirects mean zero.
func (p Policy) normalize() Policy {
	if p.MaxRedirects < 0 {
		p.MaxRedirects = 0
	}
	if p.IgnoredHeaders == nil {
		p.IgnoredHeaders = append([]string(nil), DefaultIgnoredHeaders...)
	}
	if p.DialTimeout <= 0 {
		p.DialTimeout = DefaultDialTimeout
	}
	if p.ResponseHeaderTimeout <= 0 {
		p.ResponseHeaderTimeout = DefaultResponseHeaderTimeout
	}
	return p
}

// skipSet builds the canonicalised set of headers never relayed.
func (p Policy) skipSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.IgnoredHeaders)+len(hopByHop))
	for _, h := range p.IgnoredHeaders {
		set[http.CanonicalHeaderKey(h)] = struct{}{}
	}
	for _, h := range hopByHop {
		set[http.CanonicalHeaderKey(h)] = struct{}{}
	}
	return set
}
