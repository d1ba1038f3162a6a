package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds confirmation-attempt limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration
	Prefix      string
}

// Limiter enforces a per-mask budget of confirmation attempts using
// Redis fixed-window counters. Masks on different networks count
// independently.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a confirmation [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *Limiter) key(network, mask string) string {
	return l.config.Prefix + ":" + normalizeNetwork(network) + ":" + mask
}

func normalizeNetwork(network string) string {
	if network == "" {
		return "0"
	}
	return network
}

// Check reports whether the mask is still within its attempt budget.
// Returns ErrRateLimited once the budget is exhausted.
func (l *Limiter) Check(ctx context.Context, network, mask string) error {
	count, err := l.redis.Get(ctx, l.key(network, mask)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

// Increment records a failed confirmation attempt for the mask.
// Returns ErrRateLimited when the attempt exceeds the budget.
func (l *Limiter) Increment(ctx context.Context, network, mask string) error {
	count, err := l.incrementWithTTL(ctx, l.key(network, mask), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

// Reset clears the attempt counter for the mask. Called after a
// successful confirmation.
func (l *Limiter) Reset(ctx context.Context, network, mask string) error {
	if err := l.redis.Del(ctx, l.key(network, mask)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Attempts returns the current attempt counter for a mask. Missing keys
// return zero.
func (l *Limiter) Attempts(ctx context.Context, network, mask string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(network, mask)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
