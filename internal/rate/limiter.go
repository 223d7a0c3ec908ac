package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the throttle budget.
type Config struct {
	Prefix      string
	MaxAttempts int
	Window      time.Duration
	// PerIP also counts failures per client IP when an IP is known.
	PerIP bool
}

// Limiter counts failed logins per username and client IP.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: client, config: cfg}
}

// Check returns [ErrRateLimited] when username or ip has exceeded the budget.
func (l *Limiter) Check(ctx context.Context, username, ip string) error {
	for _, key := range l.keys(username, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// Fail records a failed attempt. It returns [ErrRateLimited] once this failure
// spends the last attempt of the window.
func (l *Limiter) Fail(ctx context.Context, username, ip string) error {
	limited := false
	for _, key := range l.keys(username, ip) {
		count, err := l.incrementWithTTL(ctx, key)
		if err != nil {
			return err
		}
		if count >= int64(l.config.MaxAttempts) {
			limited = true
		}
	}
	if limited {
		return ErrRateLimited
	}
	return nil
}

// Reset clears the username counter after a successful login. The IP counter is
// left to expire so one good account cannot unlock an address.
func (l *Limiter) Reset(ctx context.Context, username string) error {
	if err := l.redis.Del(ctx, l.userKey(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the failures recorded for username in the current window.
func (l *Limiter) Attempts(ctx context.Context, username string) (int, error) {
	count, err := l.redis.Get(ctx, l.userKey(username)).Int64()
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

func (l *Limiter) keys(username, ip string) []string {
	keys := []string{l.userKey(username)}
	if l.config.PerIP && ip != "" {
		keys = append(keys, l.config.Prefix+":ip:"+ip)
	}
	return keys
}

func (l *Limiter) userKey(username string) string {
	return l.config.Prefix + ":u:" + username
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// fixed window: only the first hit sets the expiry
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return count, nil
}
