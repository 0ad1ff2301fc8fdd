package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisWorkspaceCache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	c, err := NewRedisWorkspaceCache("redis://"+s.Addr(), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, s
}

func TestRedisWorkspaceCache_SetGet(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	_, gen, ok, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, gen)

	require.NoError(t, c.Set(ctx, "user-1", gen, []byte(`[{"name":"Work"}]`)))

	data, gen, ok, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, gen)
	assert.JSONEq(t, `[{"name":"Work"}]`, string(data))
}

func TestRedisWorkspaceCache_Expires(t *testing.T) {
	c, s := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "user-1", 0, []byte(`[]`)))
	s.FastForward(2 * time.Minute)

	_, _, ok, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisWorkspaceCache_InvalidateIsolation(t *testing.T) {
	c, s := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "user-1", 0, []byte(`[1]`)))
	require.NoError(t, c.Set(ctx, "user-2", 0, []byte(`[2]`)))

	require.NoError(t, c.Invalidate(ctx, "user-1"))

	assert.False(t, s.Exists("workspace:snap:user-1:0"))
	assert.True(t, s.Exists("workspace:snap:user-2:0"))
	_, gen, ok, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), gen)

	// Invalidating an owner without a snapshot is fine.
	assert.NoError(t, c.Invalidate(ctx, "user-3"))
}

func TestRedisWorkspaceCache_FillFromBeforeInvalidateIsNeverServed(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	// Arrange: a reader misses and loads from storage
	_, gen, ok, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, ok)

	// Act: a write lands before the reader fills the cache
	require.NoError(t, c.Invalidate(ctx, "user-1"))
	require.NoError(t, c.Set(ctx, "user-1", gen, []byte(`["stale"]`)))

	// Assert
	_, next, ok, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, gen+1, next)
}

func TestNewRedisWorkspaceCache_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := NewRedisWorkspaceCache("redis://"+addr, time.Minute)
	assert.Error(t, err)
}
