package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c := NewRedis(RedisConfig{Addr: mr.Addr(), Prefix: "PcWeb:"})
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedis_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	_, ok, err := c.Get(ctx, "store:parts:all")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "store:parts:all", `[{"id":1}]`, 30*time.Minute))
	assert.True(t, mr.Exists("PcWeb:store:parts:all"), "key stored under prefix")
	assert.Equal(t, 30*time.Minute, mr.TTL("PcWeb:store:parts:all"))

	v, ok, err := c.Get(ctx, "store:parts:all")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)

	require.NoError(t, c.Delete(ctx, "store:parts:all"))
	_, ok, err = c.Get(ctx, "store:parts:all")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(61 * time.Second)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Unavailable(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)
	mr.Close()

	_, _, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Ping(ctx))
}
