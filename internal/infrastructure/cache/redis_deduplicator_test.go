package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis реализует только SetNX и Del, остальные методы Cmdable не вызываются.
type fakeRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	keys map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, ttl time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisDeduplicator(t *testing.T) {
	client := newFakeRedis()
	d := NewRedisDeduplicator(client, "dedupe:", 0)
	ctx := context.Background()

	first, err := d.FirstSeen(ctx, "webhook:1:paid")
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, DefaultDedupeTTL, client.keys["dedupe:webhook:1:paid"])

	again, err := d.FirstSeen(ctx, "webhook:1:paid")
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, d.Forget(ctx, "webhook:1:paid"))
	afterForget, err := d.FirstSeen(ctx, "webhook:1:paid")
	require.NoError(t, err)
	assert.True(t, afterForget)
}

func TestRedisDeduplicator_Errors(t *testing.T) {
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	d := NewRedisDeduplicator(client, "", time.Hour)

	_, err := d.FirstSeen(context.Background(), "k")
	assert.ErrorIs(t, err, client.err)
	assert.ErrorIs(t, d.Forget(context.Background(), "k"), client.err)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "redis://:bad@host:notaport/0")
	assert.Error(t, err)
}
