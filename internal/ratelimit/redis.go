package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// recordScript increments the counter for a key, starting a fresh window on
// first use, and returns {count, ttl_ms}. Window expiry is handled by Redis
// key TTL, so Cleanup is a no-op for this backend.
var recordScript = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])

local count = redis.call('INCR', key)
if count == 1 then
    redis.call('PEXPIRE', key, window)
end

local ttl = redis.call('PTTL', key)
if ttl < 0 then
    redis.call('PEXPIRE', key, window)
    ttl = window
end

return {count, ttl}
`)

// Redis is a shared-store Limiter for multi-instance deployments, where an
// in-process map would let attackers spread attempts across instances.
type Redis struct {
	client *redis.Client
	policy Policy
}

func NewRedis(client *redis.Client, policy Policy) *Redis {
	return &Redis{client: client, policy: policy}
}

func (r *Redis) Record(ctx context.Context, key string) (Result, error) {
	result, err := recordScript.Run(ctx, r.client,
		[]string{redisKeyPrefix + key},
		r.policy.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Result{}, err
	}
	if len(result) != 2 {
		return Result{}, redis.Nil
	}

	count := int(result[0])
	remaining := r.policy.MaxAttempts - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Blocked:   count > r.policy.MaxAttempts,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Duration(result[1]) * time.Millisecond),
	}, nil
}

func (r *Redis) Blocked(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Get(ctx, redisKeyPrefix+key).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return count >= r.policy.MaxAttempts, nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (r *Redis) Cleanup(ctx context.Context) error {
	return nil
}

var _ Limiter = (*Redis)(nil)
