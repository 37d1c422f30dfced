package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis is a Storage backed by a Redis server. Keys are stored under a
// prefix; QuotaBytes bounds the size of each stored value.
type Redis struct {
	rdb        *redis.Client
	prefix     string
	quotaBytes int
}

// NewRedis creates a Redis store using an existing client.
func NewRedis(rdb *redis.Client, prefix string, quotaBytes int) *Redis {
	return &Redis{
		rdb:        rdb,
		prefix:     prefix,
		quotaBytes: quotaBytes,
	}
}

// Get retrieves the value stored under key.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}

// Set stores value under key with no expiry.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if exceedsQuota(r.quotaBytes, value) {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrQuotaExceeded, len(value), r.quotaBytes)
	}

	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		if isRedisOOM(err) {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return fmt.Errorf("failed to store value: %w", err)
	}
	return nil
}

// Remove deletes key.
func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}
	return nil
}

// isRedisOOM reports whether the server rejected a write because maxmemory
// was reached.
func isRedisOOM(err error) bool {
	var rerr redis.Error
	if errors.As(err, &rerr) {
		return strings.HasPrefix(rerr.Error(), "OOM")
	}
	return false
}
