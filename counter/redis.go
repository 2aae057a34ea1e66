package counter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis shares counters across processes and survives restarts. Counter
// names map to plain string keys under an optional namespace prefix.
type Redis struct {
	rdb redis.UniversalClient
	ns  string // optional prefix; "" leaves names untouched
}

var _ Counter = (*Redis)(nil)

// NewRedis creates a Redis-backed counter service. namespace may be empty.
func NewRedis(client redis.UniversalClient, namespace string) *Redis {
	return &Redis{rdb: client, ns: namespace}
}

func (r *Redis) key(name string) string {
	if r.ns == "" {
		return name
	}
	return r.ns + ":" + name
}

func (r *Redis) AddIfAbsent(ctx context.Context, name string, initial uint64) error {
	return r.rdb.SetNX(ctx, r.key(name), initial, 0).Err()
}

func (r *Redis) Increment(ctx context.Context, name string) (uint64, error) {
	v, err := r.rdb.Incr(ctx, r.key(name)).Result()
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

// Current returns the counter's value. Missing counters read as 0.
func (r *Redis) Current(ctx context.Context, name string) (uint64, error) {
	res, err := r.rdb.Get(ctx, r.key(name)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis counter parse: %w", err)
	}
	return u, nil
}

// Close closes the underlying Redis client.
func (r *Redis) Close(context.Context) error { return r.rdb.Close() }
