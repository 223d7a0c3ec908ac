package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goIdentity/cache"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/session"
)

// VerifyFailureKind classifies verification failures for root-level mapping.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureMalformed
	VerifyFailureMissingClaims
	VerifyFailureUserNotFound
	VerifyFailureSessionNotFound
	VerifyFailureRole
	VerifyFailureSignature
	VerifyFailureSessionMismatch
	VerifyFailureRevoked
	VerifyFailureBackend
)

func (k VerifyFailureKind) String() string {
	switch k {
	case VerifyFailureNone:
		return "none"
	case VerifyFailureMalformed:
		return "malformed"
	case VerifyFailureMissingClaims:
		return "missing_claims"
	case VerifyFailureUserNotFound:
		return "user_not_found"
	case VerifyFailureSessionNotFound:
		return "session_not_found"
	case VerifyFailureRole:
		return "insufficient_role"
	case VerifyFailureSignature:
		return "signature"
	case VerifyFailureSessionMismatch:
		return "session_mismatch"
	case VerifyFailureRevoked:
		return "revoked"
	case VerifyFailureBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// VerifyResult returns either the resolved user and session or a classified failure.
type VerifyResult[U any] struct {
	Failure  VerifyFailureKind
	Err      error
	User     U
	Session  *session.Session
	CacheHit bool
	// CachePutErr is a non-fatal cache write failure.
	CachePutErr error
}

// VerifyDeps captures token verification dependencies. U is the host user type.
type VerifyDeps[U any] struct {
	DecodeUnverified func(string) (*jwt.Claims, error)
	DecodeVerified   func(string, []byte) (*jwt.Claims, error)
	FindUser         func(context.Context, string) (U, error)
	FindSession      func(context.Context, string) (*session.Session, error)
	// IsNotFound reports whether a store error means the object does not exist.
	IsNotFound func(error) bool
	// Cache is optional.
	Cache cache.Cache
	Now   func() time.Time
}

// RunVerify executes the two-phase verification of tokenStr. allow is the role gate
// applied to the resolved user, on the cached and the uncached path alike.
func RunVerify[U any](ctx context.Context, tokenStr string, allow func(U) bool, deps VerifyDeps[U]) VerifyResult[U] {
	claims, err := deps.DecodeUnverified(tokenStr)
	if err != nil {
		return VerifyResult[U]{Failure: VerifyFailureMalformed, Err: err}
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return VerifyResult[U]{Failure: VerifyFailureMissingClaims}
	}

	if deps.Cache != nil {
		if sess, ok := deps.Cache.Get(ctx, tokenStr); ok && cachedSessionUsable(sess, claims, deps.Now()) {
			return verifyCached(ctx, sess, claims, allow, deps)
		}
	}

	user, err := deps.FindUser(ctx, claims.UserID)
	if err != nil {
		return lookupFailure[U](err, VerifyFailureUserNotFound, deps)
	}
	sess, err := deps.FindSession(ctx, claims.SessionID)
	if err != nil {
		return lookupFailure[U](err, VerifyFailureSessionNotFound, deps)
	}

	if !allow(user) {
		return VerifyResult[U]{Failure: VerifyFailureRole}
	}

	if _, err := deps.DecodeVerified(tokenStr, sess.Secret); err != nil {
		return VerifyResult[U]{Failure: VerifyFailureSignature, Err: err}
	}
	if sess.UserID != claims.UserID {
		return VerifyResult[U]{Failure: VerifyFailureSessionMismatch}
	}

	result := VerifyResult[U]{User: user, Session: sess}
	if deps.Cache != nil {
		if err := deps.Cache.Put(ctx, tokenStr, sess); err != nil {
			if errors.Is(err, cache.ErrRevoked) {
				// revoked while this verification was in flight
				return VerifyResult[U]{Failure: VerifyFailureRevoked, Err: err}
			}
			result.CachePutErr = err
		}
	}
	return result
}

func verifyCached[U any](ctx context.Context, sess *session.Session, claims *jwt.Claims, allow func(U) bool, deps VerifyDeps[U]) VerifyResult[U] {
	user, err := deps.FindUser(ctx, claims.UserID)
	if err != nil {
		return lookupFailure[U](err, VerifyFailureUserNotFound, deps)
	}
	if !allow(user) {
		return VerifyResult[U]{Failure: VerifyFailureRole, CacheHit: true}
	}
	return VerifyResult[U]{User: user, Session: sess, CacheHit: true}
}

// A cache entry is keyed by the raw token, so a mismatch here means a corrupt entry.
func cachedSessionUsable(sess *session.Session, claims *jwt.Claims, now time.Time) bool {
	return sess != nil &&
		sess.ID == claims.SessionID &&
		sess.UserID == claims.UserID &&
		!sess.Expired(now)
}

func lookupFailure[U any](err error, notFound VerifyFailureKind, deps VerifyDeps[U]) VerifyResult[U] {
	if deps.IsNotFound != nil && deps.IsNotFound(err) {
		return VerifyResult[U]{Failure: notFound, Err: err}
	}
	return VerifyResult[U]{Failure: VerifyFailureBackend, Err: err}
}
