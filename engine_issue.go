package goIdentity

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/internal/rate"
	"github.com/MrEthical07/goIdentity/session"
	"go.uber.org/zap"
)

// Issue creates a session for user with a fresh secret and returns it with its signed
// token. Nothing about user is modified. A store failure is returned as
// [ErrPersistence] and is not retried.
func (e *Engine) Issue(ctx context.Context, user *User) (*session.Session, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	if user == nil || user.ID == "" {
		return nil, ErrObjectNotFound
	}

	result := flows.RunIssue(ctx, user.ID, e.flows.Issue)

	switch result.Failure {
	case flows.IssueFailureNone:
	case flows.IssueFailurePersist:
		err := fmt.Errorf("%w: %v", ErrPersistence, result.Err)
		e.log.Warn("session persist failed", zap.String("user_id", user.ID), zap.Error(result.Err))
		e.emitAudit(ctx, auditEventSessionIssueFailure, false, "", user.ID, "", err, nil)
		return nil, err
	default:
		e.log.Error("session issue failed", zap.String("user_id", user.ID), zap.Error(result.Err))
		e.emitAudit(ctx, auditEventSessionIssueFailure, false, "", user.ID, "", result.Err, nil)
		return nil, fmt.Errorf("issue session: %w", result.Err)
	}

	sess := result.Session
	e.metrics.Inc(MetricSessionIssued)
	e.log.Info("session issued", zap.String("user_id", user.ID), zap.String("session_id", sess.ID))
	e.emitAudit(ctx, auditEventSessionIssued, true, "", user.ID, sess.ID, nil, nil)

	return sess, nil
}

// Login checks username and password and issues a session on success. An unknown
// username and a wrong password both return [ErrInvalidCredentials]. With the login
// throttle enabled, a username or client IP over its failure budget gets
// [ErrLoginThrottled] before the password is checked.
func (e *Engine) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if e == nil || e.credentials == nil {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)
	if err := e.checkThrottle(ctx, username, ip); err != nil {
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", err, func() map[string]string {
			return map[string]string{"username": username}
		})
		return nil, err
	}

	result := flows.RunLogin(ctx, username, password, e.flows.Login)

	switch result.Failure {
	case flows.LoginFailureNone:
	case flows.LoginFailureBackend:
		err := fmt.Errorf("%w: %v", ErrPersistence, result.Err)
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", err, func() map[string]string {
			return map[string]string{"username": username}
		})
		return nil, err
	default:
		e.metrics.Inc(MetricLoginFailure)
		e.recordLoginFailure(ctx, username, ip)
		e.log.Debug("login rejected", zap.String("reason", loginFailureReason(result.Failure)))
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"username": username}
		})
		return nil, ErrInvalidCredentials
	}

	sess, err := e.Issue(ctx, result.User)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return nil, err
	}

	if e.throttle != nil {
		if err := e.throttle.Reset(ctx, username); err != nil {
			e.log.Warn("login throttle reset failed", zap.Error(err))
		}
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, "", result.User.ID, sess.ID, nil, nil)

	return &AuthResult{User: result.User, Session: sess}, nil
}

// IssueFor creates a session for the user named by userID on behalf of actor.
// "current" and "" name the actor itself. Returns [ErrObjectNotFound] for an unknown
// user and [ErrUnauthorized] when actor may not act on that user.
func (e *Engine) IssueFor(ctx context.Context, actor *User, userID string) (*session.Session, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	target, err := e.resolveUser(ctx, actor, userID)
	if err != nil {
		return nil, err
	}

	sess, err := e.Issue(ctx, target)
	if err != nil {
		return nil, err
	}
	if actor.ID != target.ID {
		e.log.Info("session issued on behalf", zap.String("actor_id", actor.ID), zap.String("user_id", target.ID))
	}
	return sess, nil
}

func (e *Engine) checkThrottle(ctx context.Context, username, ip string) error {
	if e.throttle == nil {
		return nil
	}

	err := e.throttle.Check(ctx, username, ip)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metrics.Inc(MetricLoginThrottled)
		e.log.Info("login throttled", zap.String("ip", ip))
		return ErrLoginThrottled
	default:
		e.metrics.Inc(MetricLoginFailure)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}

// recordLoginFailure counts a rejected password. Counter errors are only logged.
func (e *Engine) recordLoginFailure(ctx context.Context, username, ip string) {
	if e.throttle == nil {
		return
	}
	if err := e.throttle.Fail(ctx, username, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
		e.log.Warn("login throttle update failed", zap.Error(err))
	}
}

func loginFailureReason(kind flows.LoginFailureKind) string {
	switch kind {
	case flows.LoginFailureUnknownUser:
		return "unknown_user"
	case flows.LoginFailureBadPassword:
		return "bad_password"
	default:
		return "backend"
	}
}
