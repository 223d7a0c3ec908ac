package goIdentity

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/session"
	"go.uber.org/zap"
)

// Revoke deletes sess from the session store and evicts every cached token of it.
// When Revoke returns nil no token of sess verifies any more. Deleting a session that
// is already gone succeeds.
func (e *Engine) Revoke(ctx context.Context, sess *session.Session) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if sess == nil || sess.ID == "" {
		return ErrObjectNotFound
	}

	err := flows.RunRevoke(ctx, sess, e.flows.Revoke)
	if err != nil {
		err = e.revokeError(err)
		e.emitAudit(ctx, auditEventSessionRevoked, false, "", sess.UserID, sess.ID, err, nil)
		return err
	}

	e.metrics.Inc(MetricSessionRevoked)
	if e.cache != nil {
		e.metrics.Inc(MetricCacheInvalidated)
	}
	e.log.Info("session revoked", zap.String("user_id", sess.UserID), zap.String("session_id", sess.ID))
	e.emitAudit(ctx, auditEventSessionRevoked, true, "", sess.UserID, sess.ID, nil, nil)

	return nil
}

// RevokeAll revokes every session of userID and returns how many were revoked. It
// keeps going past individual failures and returns them joined.
func (e *Engine) RevokeAll(ctx context.Context, userID string) (int, error) {
	if e == nil || e.sessions == nil {
		return 0, ErrEngineNotReady
	}
	if userID == "" {
		return 0, ErrObjectNotFound
	}

	revoked, err := flows.RunRevokeAll(ctx, userID, e.flows.Revoke)
	for _, sess := range revoked {
		e.metrics.Inc(MetricSessionRevoked)
		if e.cache != nil {
			e.metrics.Inc(MetricCacheInvalidated)
		}
		e.emitAudit(ctx, auditEventSessionRevoked, true, "", userID, sess.ID, nil, nil)
	}
	if err != nil {
		err = e.revokeError(err)
	}

	e.log.Info("user sessions revoked", zap.String("user_id", userID), zap.Int("count", len(revoked)), zap.Error(err))
	e.emitAudit(ctx, auditEventRevokeAll, err == nil, "", userID, "", err, func() map[string]string {
		return map[string]string{"count": fmt.Sprint(len(revoked))}
	})

	return len(revoked), err
}

func (e *Engine) revokeError(err error) error {
	var revokeErr *flows.RevokeError
	if errors.As(err, &revokeErr) && revokeErr.Stage == flows.RevokeStageCache {
		e.log.Error("cache invalidation failed", zap.String("session_id", revokeErr.SessionID), zap.Error(revokeErr.Err))
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
