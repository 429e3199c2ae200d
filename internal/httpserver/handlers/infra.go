package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/relay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/relay/internal/httpserver/respond"
	redisstore "github.com/MrSnakeDoc/relay/internal/store/redis"
)

type componentStatus struct {
	OK      bool               `json:"ok"`
	Entries *int               `json:"entries,omitempty"`
	Mode    string             `json:"mode,omitempty"`
	Impact  string             `json:"impact,omitempty"`
	Error   string             `json:"error,omitempty"`
	Totals  *redisstore.Totals `json:"totals,omitempty"`
}

type policyStatus struct {
	MaxRedirects          int      `json:"max_redirects"`
	IgnoredHeaders        []string `json:"ignored_headers"`
	DialTimeout           string   `json:"dial_timeout"`
	ResponseHeaderTimeout string   `json:"response_header_timeout"`
	MinTTLSeconds         int64    `json:"min_ttl_seconds"`
	MaxTTLSeconds         int64    `json:"max_ttl_seconds"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
	Policy     policyStatus               `json:"policy"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Store.Count()

		components := map[string]componentStatus{
			"store": {
				OK:      true,
				Entries: &entries,
				Mode:    "memory",
			},
			"redis": checkRedis(r.Context(), d),
		}

		p := d.Forwarder.Policy()
		respond.JSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
			Policy: policyStatus{
				MaxRedirects:          p.MaxRedirects,
				IgnoredHeaders:        p.IgnoredHeaders,
				DialTimeout:           p.DialTimeout.String(),
				ResponseHeaderTimeout: p.ResponseHeaderTimeout.String(),
				MinTTLSeconds:         int64(d.TTL.Min / time.Second),
				MaxTTLSeconds:         int64(d.TTL.Max / time.Second),
			},
		})
	}
}

// determineMode is "degraded" when usage counters are configured but
// unreachable. Forwarding itself never depends on Redis.
func determineMode(components map[string]componentStatus) string {
	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}
	return "nominal"
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	if d.Hits == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "usage-counters-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Hits.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "usage-counters-unavailable",
			Error:  err.Error(),
		}
	}

	status := componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "usage-counters-enabled",
	}
	if totals, err := d.Hits.Totals(ctx); err == nil {
		status.Totals = &totals
	}
	return status
}
