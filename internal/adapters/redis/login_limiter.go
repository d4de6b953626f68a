package redis

// Package redis provides Redis-based adapters for the indicator-api system.

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultLoginLimiterPrefix = "loginlimit:"
	defaultMaxAttempts        = 10
	defaultWindow             = time.Minute
)

// LoginLimiter is a fixed-window counter that throttles credential-guessing
// attempts. Keys are caller-chosen (typically email plus remote address);
// counters expire with the window so no cleanup pass is needed.
type LoginLimiter struct {
	client      redis.UniversalClient
	prefix      string
	maxAttempts int64
	window      time.Duration
}

// LoginLimiterConfig groups limiter tuning knobs.
type LoginLimiterConfig struct {
	Prefix      string
	MaxAttempts int64
	Window      time.Duration
}

// NewLoginLimiter creates a login limiter with default settings.
func NewLoginLimiter(client redis.UniversalClient) *LoginLimiter {
	return NewLoginLimiterWithConfig(client, LoginLimiterConfig{})
}

// NewLoginLimiterWithConfig creates a login limiter with custom settings.
func NewLoginLimiterWithConfig(client redis.UniversalClient, cfg LoginLimiterConfig) *LoginLimiter {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultLoginLimiterPrefix
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginLimiter{
		client:      client,
		prefix:      prefix,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Allow records an attempt for the given key and reports whether it may
// proceed. The first attempt in a window sets the key's TTL; subsequent
// attempts only increment, so a burst cannot extend its own window.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}

	redisKey := l.prefix + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("incr login counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("set login counter ttl: %w", err)
		}
	}
	return count <= l.maxAttempts, nil
}

// Reset clears the attempt counter for a key (used after a successful login).
func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return l.client.Del(ctx, l.prefix+key).Err()
}
