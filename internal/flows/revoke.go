package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goIdentity/cache"
	"github.com/MrEthical07/goIdentity/session"
)

// RevokeDeps captures revocation dependencies.
type RevokeDeps struct {
	Delete     func(context.Context, *session.Session) error
	ListByUser func(context.Context, string) ([]*session.Session, error)
	// Cache is optional.
	Cache cache.Cache
}

// RevokeStage reports which step of a revocation failed.
type RevokeStage int

const (
	RevokeStageNone RevokeStage = iota
	RevokeStageStore
	RevokeStageCache
	RevokeStageList
)

// RevokeError is returned when a revocation step fails.
type RevokeError struct {
	Stage     RevokeStage
	SessionID string
	Err       error
}

func (e *RevokeError) Error() string {
	switch e.Stage {
	case RevokeStageCache:
		return "revoke " + e.SessionID + ": cache invalidation: " + e.Err.Error()
	case RevokeStageList:
		return "revoke all: list sessions: " + e.Err.Error()
	default:
		return "revoke " + e.SessionID + ": delete: " + e.Err.Error()
	}
}

func (e *RevokeError) Unwrap() error { return e.Err }

// RunRevoke deletes sess from the store and then evicts every cached token of it.
// Both steps complete before it returns.
func RunRevoke(ctx context.Context, sess *session.Session, deps RevokeDeps) error {
	if err := deps.Delete(ctx, sess); err != nil {
		return &RevokeError{Stage: RevokeStageStore, SessionID: sess.ID, Err: err}
	}
	if deps.Cache != nil {
		if err := deps.Cache.InvalidateBySession(ctx, sess.ID); err != nil {
			return &RevokeError{Stage: RevokeStageCache, SessionID: sess.ID, Err: err}
		}
	}
	return nil
}

// RunRevokeAll revokes every session of userID and returns the revoked sessions. It
// continues past individual failures and returns them joined.
func RunRevokeAll(ctx context.Context, userID string, deps RevokeDeps) ([]*session.Session, error) {
	sessions, err := deps.ListByUser(ctx, userID)
	if err != nil {
		return nil, &RevokeError{Stage: RevokeStageList, Err: err}
	}

	revoked := make([]*session.Session, 0, len(sessions))
	var errs []error
	for _, sess := range sessions {
		if err := RunRevoke(ctx, sess, deps); err != nil {
			errs = append(errs, err)
			continue
		}
		revoked = append(revoked, sess)
	}
	return revoked, errors.Join(errs...)
}
