package cache

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goIdentity/session"
)

// ErrRevoked is returned by Put when the session was invalidated within the tombstone window.
var ErrRevoked = errors.New("session revoked")

// Cache maps raw tokens to verified sessions.
type Cache interface {
	// Get returns the cached session for token. Backend failures are reported as misses.
	Get(ctx context.Context, token string) (*session.Session, bool)
	// Put records sess as the verified session for token.
	Put(ctx context.Context, token string, sess *session.Session) error
	// InvalidateBySession removes every entry of sessionID before returning.
	InvalidateBySession(ctx context.Context, sessionID string) error
}

const (
	defaultTTL          = 5 * time.Minute
	defaultTombstoneTTL = time.Minute
)

// entryTTL caps ttl at the session expiry. A result <= 0 means the entry must not be stored.
func entryTTL(ttl time.Duration, sess *session.Session, now time.Time) time.Duration {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if sess.ExpiresAt.IsZero() {
		return ttl
	}
	if remaining := sess.ExpiresAt.Sub(now); remaining < ttl {
		return remaining
	}
	return ttl
}
