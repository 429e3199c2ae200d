package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStore creates a miniredis-backed store for testing.
func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client), mr
}

func TestRecordHit(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordHit(ctx, "abc", time.Minute))
	require.NoError(t, s.RecordHit(ctx, "abc", time.Minute))

	hits, err := s.Hits(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits)

	ttl := mr.TTL(HitsKey("abc"))
	assert.True(t, ttl > 0 && ttl <= time.Minute, "hit counter should expire with the entry, ttl=%v", ttl)

	mr.FastForward(time.Minute)
	hits, err = s.Hits(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(0), hits)
}

func TestRecordHitSkipsExpired(t *testing.T) {
	s, mr := setupStore(t)

	require.NoError(t, s.RecordHit(context.Background(), "gone", 0))
	assert.False(t, mr.Exists(HitsKey("gone")))
}

func TestTotals(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	totals, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{}, totals)

	require.NoError(t, s.RecordRegistration(ctx))
	require.NoError(t, s.RecordRegistration(ctx))
	require.NoError(t, s.RecordHit(ctx, "a", time.Minute))

	totals, err = s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{Registrations: 2, Forwards: 1}, totals)
}

func TestStoreErrorsWhenRedisDown(t *testing.T) {
	s, mr := setupStore(t)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, s.Ping(ctx))
	assert.Error(t, s.RecordRegistration(ctx))
	assert.Error(t, s.RecordHit(ctx, "x", time.Minute))
	_, err := s.Totals(ctx)
	assert.Error(t, err)
}
