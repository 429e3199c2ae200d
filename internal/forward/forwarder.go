// Package forward fetches registered targets and relays their responses.
package forward

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/relay/internal/logger"
	"github.com/MrSnakeDoc/relay/internal/metrics"
	"github.com/MrSnakeDoc/relay/internal/utils"
)

// ErrUpstream wraps every failure to obtain an upstream response.
var ErrUpstream = errors.New("upstream request failed")

const copyBufferSize = 32 * 1024

// Forwarder issues outbound GETs and streams the results back.
type Forwarder struct {
	client  *http.Client
	policy  Policy
	skip    map[string]struct{}
	logger  logger.Logger
	metrics *metrics.Metrics
}

// Option customises a Forwarder.
type Option func(*Forwarder)

// WithTransport replaces the outbound transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Forwarder) { f.client.Transport = rt }
}

// WithMetrics attaches metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Forwarder) { f.metrics = m }
}

// New builds a Forwarder. The http.Client itself never follows redirects and
// never decompresses; redirects are followed by Fetch under the policy cap.
func New(policy Policy, log logger.Logger, opts ...Option) *Forwarder {
	policy = policy.normalize()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true
	transport.ResponseHeaderTimeout = policy.ResponseHeaderTimeout
	transport.DialContext = (&net.Dialer{
		Timeout:   policy.DialTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	f := &Forwarder{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		policy: policy,
		skip:   policy.skipSet(),
		logger: log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Policy returns the effective policy.
func (f *Forwarder) Policy() Policy {
	return f.policy
}

// Fetch GETs target, following at most MaxRedirects redirects. Once the cap
// is reached the last response is returned unchanged, 3xx included.
// The caller owns the returned body.
func (f *Forwarder) Fetch(ctx context.Context, target string) (*http.Response, error) {
	start := time.Now()
	current := target

	for hops := 0; ; hops++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}

		next, ok := f.redirectTarget(resp, hops)
		if !ok {
			f.metrics.Upstream(time.Since(start), hops)
			return resp, nil
		}

		f.logger.Debug("following upstream redirect",
			logger.String("from", current),
			logger.String("to", next),
			logger.Int("hop", hops+1),
			logger.Int("status", resp.StatusCode))

		drain(resp.Body)
		current = next
	}
}

// redirectTarget returns the next URL to fetch if resp is a redirect that
// should be followed.
func (f *Forwarder) redirectTarget(resp *http.Response, hops int) (string, bool) {
	if hops >= f.policy.MaxRedirects {
		return "", false
	}
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return "", false
	}

	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", false
	}
	next, err := resp.Request.URL.Parse(loc)
	if err != nil {
		return "", false
	}
	return next.String(), true
}

// Relay writes resp to w: status, filtered headers, then the body streamed
// chunk by chunk with a flush after each write. It returns the number of body
// bytes written. An error after WriteHeader can only be logged by the caller.
func (f *Forwarder) Relay(w http.ResponseWriter, resp *http.Response) (int64, error) {
	dst := w.Header()
	for key, values := range resp.Header {
		if _, skip := f.skip[http.CanonicalHeaderKey(key)]; skip {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	return stream(w, resp.Body)
}

func stream(w http.ResponseWriter, body io.Reader) (int64, error) {
	rc := http.NewResponseController(w)
	buf := make([]byte, copyBufferSize)
	var written int64

	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, fmt.Errorf("write to client: %w", werr)
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, fmt.Errorf("flush to client: %w", err)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("read from upstream: %w", rerr)
		}
	}
}

// drain discards a bounded amount of an intermediate redirect body so the
// connection can be reused, then closes it.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	utils.Close(body)
}
