package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/relay/internal/auth"
	"github.com/MrSnakeDoc/relay/internal/domain"
	"github.com/MrSnakeDoc/relay/internal/forward"
	"github.com/MrSnakeDoc/relay/internal/logger"
	"github.com/MrSnakeDoc/relay/internal/metrics"
	"github.com/MrSnakeDoc/relay/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/relay/internal/store/redis"
)

// HitRecorder keeps best-effort usage counters. Implemented by the Redis
// store; nil when Redis is disabled.
type HitRecorder interface {
	RecordRegistration(ctx context.Context) error
	RecordHit(ctx context.Context, id string, ttl time.Duration) error
	Totals(ctx context.Context) (redisstore.Totals, error)
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed on the proxy routes
	AllowedCIDRS []string         // IPs allowed to access readyz/infra/metrics
	TrustProxy   bool             // true if running behind a trusted reverse proxy

	Store        *memory.Store      // live registrations
	Authorizer   *auth.Authorizer   // bearer check for POST /proxy
	Forwarder    *forward.Forwarder // outbound client
	TTL          domain.TTLBounds   // accepted registration TTLs
	MaxBodyBytes int64              // registration body limit
	Hits         HitRecorder        // optional usage counters (nil if Redis disabled)
	HitsTimeout  time.Duration      // per-call budget for Hits
	Metrics      *metrics.Metrics   // nil-safe
	RouteTimeout time.Duration      // handler timeout for non-streaming routes
}

// Now returns TimeNow() or time.Now() when unset.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
