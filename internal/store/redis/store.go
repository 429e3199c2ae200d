package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps usage counters in Redis. It never stores targets: entries
// themselves live only in memory and die with the process.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Totals is a snapshot of the global counters.
type Totals struct {
	Registrations int64 `json:"registrations"`
	Forwards      int64 `json:"forwards"`
}

// RecordRegistration bumps the global registration counter.
func (s *Store) RecordRegistration(ctx context.Context) error {
	if err := s.client.Incr(ctx, KeyRegistrations).Err(); err != nil {
		return fmt.Errorf("failed to record registration: %w", err)
	}
	return nil
}

// RecordHit increments the counter for id and the global forward counter.
// The per-id counter expires together with the entry it describes.
func (s *Store) RecordHit(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	key := HitsKey(id)
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	pipe.Incr(ctx, KeyForwards)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record hit: %w", err)
	}
	return nil
}

// Hits returns how many times id was forwarded. Unknown ids report zero.
func (s *Store) Hits(ctx context.Context, id string) (int64, error) {
	n, err := s.client.Get(ctx, HitsKey(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get hits: %w", err)
	}
	return n, nil
}

// Totals reads the global counters.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	vals, err := s.client.MGet(ctx, KeyRegistrations, KeyForwards).Result()
	if err != nil {
		return Totals{}, fmt.Errorf("failed to get totals: %w", err)
	}

	return Totals{
		Registrations: toInt64(vals[0]),
		Forwards:      toInt64(vals[1]),
	}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func toInt64(v interface{}) int64 {
	str, ok := v.(string)
	if !ok {
		return 0
	}
	var n int64
	if _, err := fmt.Sscan(str, &n); err != nil {
		return 0
	}
	return n
}
