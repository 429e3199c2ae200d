package handlers

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/relay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/relay/internal/logger"
)

const defaultHitsTimeout = time.Second

// recordUsage runs fn against the optional hit recorder in the background.
// Counters are best effort: failures are logged and never reach the client.
func recordUsage(d deps.Deps, what string, fn func(ctx context.Context) error) {
	if d.Hits == nil {
		return
	}

	timeout := d.HitsTimeout
	if timeout <= 0 {
		timeout = defaultHitsTimeout
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.Logger.Warn("failed to record usage",
				logger.String("what", what),
				logger.Error(err))
		}
	}()
}
