package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testValue struct {
	ID     string  `json:"id"`
	CartID *string `json:"cartId,omitempty"`
}

func setupTestRedis(t *testing.T) (*RedisCache[testValue], *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache[testValue](client, "session", time.Hour), mr
}

func TestRedisCache_SetAndGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	cartID := "cart-1"

	require.NoError(t, c.Set(ctx, "s1", &testValue{ID: "s1", CartID: &cartID}))

	assert.True(t, mr.Exists("session:s1"))
	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "cart-1", *got.CartID)
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	got, err := c.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisCache_InvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("session:s1", `{"id":`))

	_, err := c.Get(context.Background(), "s1")

	require.ErrorContains(t, err, "unmarshal session failed")
}

func TestRedisCache_TTLWithJitter(t *testing.T) {
	c, mr := setupTestRedis(t)

	require.NoError(t, c.Set(context.Background(), "s1", &testValue{ID: "s1"}))

	ttl := mr.TTL("session:s1")
	assert.True(t, ttl >= time.Hour, "TTL should be at least base TTL")
	assert.True(t, ttl <= time.Hour+6*time.Minute, "TTL should be base + max jitter")
}

func TestRedisCache_Delete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "s1", &testValue{ID: "s1"}))

	require.NoError(t, c.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("session:s1"))

	assert.NoError(t, c.Delete(ctx, "never-existed"))
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache[testValue](time.Minute)
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()

	value := &testValue{ID: "s1"}
	require.NoError(t, c.Set(ctx, "s1", value))
	value.ID = "mutated"

	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID, "stored value must not alias the caller's pointer")

	require.NoError(t, c.Delete(ctx, "s1"))
	_, err = c.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache[testValue](time.Minute)
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "s1", &testValue{ID: "s1"}))

	now = now.Add(2 * time.Minute)
	_, err := c.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	c.expire()
	c.mu.RLock()
	assert.Empty(t, c.entries)
	c.mu.RUnlock()
}
