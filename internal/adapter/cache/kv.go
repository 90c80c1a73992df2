// Package cache holds read-through caches in front of the repositories.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by KV.Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// KV is the subset of a key-value store the caches need.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	// Incr atomically increments the integer at key, starting from 0.
	Incr(ctx context.Context, key string) (int64, error)
	// SetIfEqual sets key only while guard still holds want. A missing guard
	// reads as "0". It reports whether the value was written.
	SetIfEqual(ctx context.Context, key, value string, ttl time.Duration, guard, want string) (bool, error)
}

// RedisKV implements KV on a go-redis client.
type RedisKV struct {
	c *redis.Client
}

// NewRedisKV connects to the Redis server at url (redis://host:port/db) and
// pings it.
func NewRedisKV(ctx context.Context, url string) (*RedisKV, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &RedisKV{c: c}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, key string) error {
	return r.c.Del(ctx, key).Err()
}

func (r *RedisKV) Incr(ctx context.Context, key string) (int64, error) {
	return r.c.Incr(ctx, key).Result()
}

// setIfEqual runs as one script so no writer can slip between the guard
// check and the SET.
var setIfEqual = redis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if not cur then cur = '0' end
if cur ~= ARGV[3] then return 0 end
if tonumber(ARGV[2]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

func (r *RedisKV) SetIfEqual(ctx context.Context, key, value string, ttl time.Duration, guard, want string) (bool, error) {
	n, err := setIfEqual.Run(ctx, r.c, []string{key, guard}, value, ttl.Milliseconds(), want).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Close closes the client.
func (r *RedisKV) Close() error { return r.c.Close() }
