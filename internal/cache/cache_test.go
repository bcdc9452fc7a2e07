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

type entry struct {
	Name string `json:"name"`
}

func TestNilClientIsMissOnly(t *testing.T) {
	var c *Client
	ctx := context.Background()

	c.SetJSON(ctx, "k", entry{Name: "pikachu"}, time.Minute)
	c.Delete(ctx, "k")

	var got entry
	assert.False(t, c.GetJSON(ctx, "k", &got))
	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestUnreachableRedisFailsSafe(t *testing.T) {
	c := NewWithClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}))
	defer c.Close()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.SetJSON(ctx, "k", entry{Name: "pikachu"}, time.Minute)
		c.Delete(ctx, "k")
	})

	var got entry
	assert.False(t, c.GetJSON(ctx, "k", &got))
	assert.Error(t, c.Ping(ctx))
}

func newMiniredisCache(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestJSONRoundTrip(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	c.SetJSON(ctx, "team:1:3", entry{Name: "pikachu"}, time.Minute)

	var got entry
	require.True(t, c.GetJSON(ctx, "team:1:3", &got))
	assert.Equal(t, entry{Name: "pikachu"}, got)
	assert.Equal(t, time.Minute, mr.TTL("team:1:3"))

	var missing entry
	assert.False(t, c.GetJSON(ctx, "team:1:4", &missing))
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "k", entry{Name: "eevee"}, time.Minute)
	mr.FastForward(2 * time.Minute)

	var got entry
	assert.False(t, c.GetJSON(ctx, "k", &got))
}

func TestDeleteSeveralKeys(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "a", entry{Name: "a"}, time.Minute)
	c.SetJSON(ctx, "b", entry{Name: "b"}, time.Minute)
	c.SetJSON(ctx, "c", entry{Name: "c"}, time.Minute)

	c.Delete(ctx, "a", "b")

	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
	assert.True(t, mr.Exists("c"))
}

func TestUndecodablePayloadIsMiss(t *testing.T) {
	c, mr := newMiniredisCache(t)
	require.NoError(t, mr.Set("k", "not json"))

	var got entry
	assert.False(t, c.GetJSON(context.Background(), "k", &got))
}
