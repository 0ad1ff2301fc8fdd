// Package cache holds the per-owner workspace snapshot served by GET /topics.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// WorkspaceCache stores an opaque serialized snapshot per owner. Snapshots
// are filed under the owner's current generation. Invalidate starts a new
// generation, so a snapshot filled from a read that began before a write is
// never served after that write.
type WorkspaceCache interface {
	// Get returns the snapshot of the current generation, if any, together
	// with that generation. A miss should be filled with Set under gen.
	Get(ctx context.Context, ownerID string) (snapshot []byte, gen int64, hit bool, err error)
	Set(ctx context.Context, ownerID string, gen int64, snapshot []byte) error
	Invalidate(ctx context.Context, ownerID string) error
}

// RedisWorkspaceCache implements WorkspaceCache on top of Redis. The
// generation lives in workspace:gen:<owner>, snapshots in
// workspace:snap:<owner>:<gen>.
type RedisWorkspaceCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisWorkspaceCache connects to redisURL and verifies the connection.
func NewRedisWorkspaceCache(redisURL string, ttl time.Duration) (*RedisWorkspaceCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisWorkspaceCacheWithClient(client, ttl), nil
}

func NewRedisWorkspaceCacheWithClient(client *redis.Client, ttl time.Duration) *RedisWorkspaceCache {
	return &RedisWorkspaceCache{
		client: client,
		prefix: "workspace:",
		ttl:    ttl,
	}
}

func (c *RedisWorkspaceCache) genKey(ownerID string) string {
	return c.prefix + "gen:" + ownerID
}

func (c *RedisWorkspaceCache) snapshotKey(ownerID string, gen int64) string {
	return c.prefix + "snap:" + ownerID + ":" + strconv.FormatInt(gen, 10)
}

func (c *RedisWorkspaceCache) generation(ctx context.Context, ownerID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get workspace generation: %w", err)
	}
	return gen, nil
}

func (c *RedisWorkspaceCache) Get(ctx context.Context, ownerID string) ([]byte, int64, bool, error) {
	gen, err := c.generation(ctx, ownerID)
	if err != nil {
		return nil, 0, false, err
	}
	data, err := c.client.Get(ctx, c.snapshotKey(ownerID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("get workspace snapshot: %w", err)
	}
	return data, gen, true, nil
}

// Set stores snapshot under gen. A generation that has been invalidated in
// the meantime is never read again, so the entry just expires.
func (c *RedisWorkspaceCache) Set(ctx context.Context, ownerID string, gen int64, snapshot []byte) error {
	if err := c.client.Set(ctx, c.snapshotKey(ownerID, gen), snapshot, c.ttl).Err(); err != nil {
		return fmt.Errorf("set workspace snapshot: %w", err)
	}
	return nil
}

func (c *RedisWorkspaceCache) Invalidate(ctx context.Context, ownerID string) error {
	gen, err := c.client.Incr(ctx, c.genKey(ownerID)).Result()
	if err != nil {
		return fmt.Errorf("invalidate workspace snapshot: %w", err)
	}
	if err := c.client.Del(ctx, c.snapshotKey(ownerID, gen-1)).Err(); err != nil {
		return fmt.Errorf("drop stale workspace snapshot: %w", err)
	}
	return nil
}

func (c *RedisWorkspaceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisWorkspaceCache) Close() error {
	return c.client.Close()
}

// Noop is used when no Redis is configured; every lookup misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, int64, bool, error) { return nil, 0, false, nil }
func (Noop) Set(context.Context, string, int64, []byte) error         { return nil }
func (Noop) Invalidate(context.Context, string) error                 { return nil }
