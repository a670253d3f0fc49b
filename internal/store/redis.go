package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

const redisOpTimeout = 5 * time.Second

// Redis keeps snapshots in Redis with an optional TTL, which suits live
// dashboards that only care about recent runs. A zero TTL keeps entries
// until evicted.
type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

var _ sim.SnapshotStore = (*Redis)(nil)

// NewRedis connects to the given URL (redis://host:port/db) and verifies the
// connection with a ping before returning.
func NewRedis(redisURL, keyPrefix string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Redis{client: client, ttl: ttl, keyPrefix: keyPrefix}, nil
}

// NewRedisFromClient wraps an existing client. Used by tests with miniredis.
func NewRedisFromClient(client *redis.Client, keyPrefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

func (r *Redis) key(path string) string {
	if r.keyPrefix == "" {
		return path
	}
	return r.keyPrefix + ":" + path
}

// Write stores data under the prefixed key with the configured TTL.
func (r *Redis) Write(path string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key(path), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Read returns the value under the prefixed key, or ErrNotFound.
func (r *Redis) Read(path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	data, err := r.client.Get(ctx, r.key(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// List scans for keys under prefix and returns them with the deployment
// prefix stripped, in lexical order.
func (r *Redis) List(prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, r.key(prefix)+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if r.keyPrefix != "" {
			key = strings.TrimPrefix(key, r.keyPrefix+":")
		}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error { return r.client.Close() }
