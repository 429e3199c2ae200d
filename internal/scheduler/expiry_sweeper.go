package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/relay/internal/logger"
	"github.com/MrSnakeDoc/relay/internal/metrics"
)

// DefaultSweepInterval matches the default minimum TTL.
const DefaultSweepInterval = 60 * time.Second

// Pruner is the part of the store the sweeper needs.
type Pruner interface {
	Prune(now time.Time) int
	Count() int
}

// ExpirySweeper periodically removes expired entries from the store.
type ExpirySweeper struct {
	store    Pruner
	logger   logger.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewExpirySweeper creates a new sweeper. A non-positive interval falls back
// to DefaultSweepInterval.
func NewExpirySweeper(
	store Pruner,
	log logger.Logger,
	interval time.Duration,
	m *metrics.Metrics,
) *ExpirySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &ExpirySweeper{
		store:    store,
		logger:   log,
		metrics:  m,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval until Stop is
// called or ctx is cancelled.
func (es *ExpirySweeper) Start(ctx context.Context) error {
	es.runOnce()

	ticker := time.NewTicker(es.interval)
	go func() {
		defer close(es.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				es.runOnce()
			case <-es.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper and waits for the loop to exit. Safe to call twice.
func (es *ExpirySweeper) Stop() {
	es.stopOnce.Do(func() { close(es.stopCh) })
	<-es.done
}

// runOnce sweeps and logs; failures never escape the loop.
func (es *ExpirySweeper) runOnce() {
	removed, err := es.Sweep(es.now())
	es.metrics.Sweep(removed, err)
	if err != nil {
		es.logger.Error("expiry sweep failed, will retry on next tick",
			logger.Duration("interval", es.interval),
			logger.Error(err))
		return
	}

	if removed > 0 {
		es.logger.Info("expired proxies swept",
			logger.Int("removed", removed),
			logger.Int("remaining", es.store.Count()))
	} else {
		es.logger.Debug("no expired proxies to sweep")
	}
}

// Sweep prunes everything expired at now. A panic inside the store is
// turned into an error so one bad sweep can't take the process down.
func (es *ExpirySweeper) Sweep(now time.Time) (removed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			removed = 0
			err = fmt.Errorf("prune panicked: %v", r)
		}
	}()

	return es.store.Prune(now), nil
}
