package forward

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/relay/internal/logger"
)

func newForwarder(p Policy) *Forwarder {
	return New(p, logger.NewNop())
}

func TestFetchAndRelay(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "yes")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, "short and stout")
	}))
	defer upstream.Close()

	f := newForwarder(DefaultPolicy())
	resp, err := f.Fetch(context.Background(), upstream.URL+"/ok")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer resp.Body.Close()

	rec := httptest.NewRecorder()
	n, err := f.Relay(rec, resp)
	if err != nil {
		t.Fatalf("Relay() error = %v", err)
	}

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if n != int64(len("short and stout")) {
		t.Errorf("Relay() wrote %d bytes", n)
	}
	if rec.Header().Get("X-Upstream") != "yes" {
		t.Error("custom header was not relayed")
	}
	if rec.Header().Get("Content-Length") != "" {
		t.Error("Content-Length must not be relayed")
	}
}

func TestRelayDropsIgnoredHeaders(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte("compressed payload"))
	_ = zw.Close()
	raw := gz.Bytes()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Length", fmt.Sprint(len(raw)))
		w.Header().Set("Cache-Control", "max-age=60")
		_, _ = w.Write(raw)
	}))
	defer upstream.Close()

	f := newForwarder(DefaultPolicy())
	resp, err := f.Fetch(context.Background(), upstream.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer resp.Body.Close()

	rec := httptest.NewRecorder()
	if _, err := f.Relay(rec, resp); err != nil {
		t.Fatalf("Relay() error = %v", err)
	}

	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q, want dropped", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "max-age=60" {
		t.Errorf("Cache-Control = %q, want relayed", got)
	}
	// Body passes through byte for byte, still compressed.
	if !bytes.Equal(rec.Body.Bytes(), raw) {
		t.Error("compressed body was altered")
	}
}

func TestRelayCustomDenyList(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "a=b")
		w.Header().Set("X-Keep", "1")
	}))
	defer upstream.Close()

	f := newForwarder(Policy{IgnoredHeaders: []string{"set-cookie"}})
	resp, err := f.Fetch(context.Background(), upstream.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer resp.Body.Close()

	rec := httptest.NewRecorder()
	_, _ = f.Relay(rec, resp)

	if rec.Header().Get("Set-Cookie") != "" {
		t.Error("Set-Cookie should be dropped by custom deny-list")
	}
	if rec.Header().Get("X-Keep") != "1" {
		t.Error("X-Keep should be relayed")
	}
}

func TestFetchDoesNotRequestCompression(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Header.Get("Accept-Encoding"))
	}))
	defer upstream.Close()

	f := newForwarder(DefaultPolicy())
	resp, err := f.Fetch(context.Background(), upstream.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("Accept-Encoding = %q, want none", body)
	}
}

// redirectChain serves /hop/N -> /hop/N-1 ... -> /hop/0 which returns 200.
func redirectChain(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n int
		if _, err := fmt.Sscanf(r.URL.Path, "/hop/%d", &n); err != nil {
			http.NotFound(w, r)
			return
		}
		if n == 0 {
			_, _ = io.WriteString(w, "landed")
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", n-1), http.StatusFound)
	}))
}

func TestFetchFollowsRedirectsUpToCap(t *testing.T) {
	upstream := redirectChain(t)
	defer upstream.Close()

	tests := []struct {
		name       string
		max        int
		hops       int
		wantStatus int
	}{
		{"within cap", 10, 3, http.StatusOK},
		{"exactly at cap", 10, 10, http.StatusOK},
		{"beyond cap returns last redirect", 10, 11, http.StatusFound},
		{"redirects disabled", 0, 1, http.StatusFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			p.MaxRedirects = tt.max
			f := newForwarder(p)

			resp, err := f.Fetch(context.Background(), fmt.Sprintf("%s/hop/%d", upstream.URL, tt.hops))
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestFetchUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := upstream.URL
	upstream.Close()

	f := newForwarder(DefaultPolicy())
	_, err := f.Fetch(context.Background(), addr)
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Fetch() error = %v, want ErrUpstream", err)
	}
}

func TestFetchBadTarget(t *testing.T) {
	f := newForwarder(DefaultPolicy())
	for _, target := range []string{"::not a url", "ftp://example.test/file", ""} {
		if _, err := f.Fetch(context.Background(), target); !errors.Is(err, ErrUpstream) {
			t.Errorf("Fetch(%q) error = %v, want ErrUpstream", target, err)
		}
	}
}

func TestFetchHonoursContextCancel(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer upstream.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := newForwarder(DefaultPolicy())
	_, err := f.Fetch(ctx, upstream.URL)
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Fetch() error = %v, want ErrUpstream after cancel", err)
	}
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("client gone") }

func TestRelayStopsWhenClientGoes(t *testing.T) {
	f := newForwarder(DefaultPolicy())
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(strings.Repeat("x", 100000))),
	}

	_, err := f.Relay(failingWriter{httptest.NewRecorder()}, resp)
	if err == nil {
		t.Error("Relay() should report client write failures")
	}
}

func TestPolicyNormalize(t *testing.T) {
	p := Policy{MaxRedirects: -3}.normalize()
	if p.MaxRedirects != 0 {
		t.Errorf("MaxRedirects = %d, want 0", p.MaxRedirects)
	}
	if len(p.IgnoredHeaders) != 2 {
		t.Errorf("IgnoredHeaders = %v, want defaults", p.IgnoredHeaders)
	}
	if p.DialTimeout != DefaultDialTimeout || p.ResponseHeaderTimeout != DefaultResponseHeaderTimeout {
		t.Error("timeouts should fall back to defaults")
	}

	empty := Policy{IgnoredHeaders: []string{}}.normalize()
	if len(empty.IgnoredHeaders) != 0 {
		t.Error("an explicit empty deny-list must be kept")
	}
}
