package goIdentity

import (
	"context"

	"github.com/MrEthical07/goIdentity/internal"
	"github.com/MrEthical07/goIdentity/session"
)

// CurrentID names the authenticated user or session in ResolveUser, ResolveSession,
// ListSessions, DestroySession and IssueFor.
const CurrentID = "current"

// ResolveUser returns the user named by userID as seen by auth. "current" and "" name
// the authenticated user. Other users require authorization.
func (e *Engine) ResolveUser(ctx context.Context, auth *AuthResult, userID string) (*User, error) {
	if auth == nil || auth.User == nil {
		return nil, ErrUnauthorized
	}
	return e.resolveUser(ctx, auth.User, userID)
}

func (e *Engine) resolveUser(ctx context.Context, actor *User, userID string) (*User, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if userID == "" || userID == CurrentID || userID == actor.ID {
		return actor, nil
	}

	user, err := e.findUser(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	if err := e.RequireAuthorized(ctx, actor, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResolveSession returns the session named by sessionID as seen by auth. "current"
// names the session auth was verified with.
func (e *Engine) ResolveSession(ctx context.Context, auth *AuthResult, sessionID string) (*session.Session, error) {
	if auth == nil || auth.User == nil {
		return nil, ErrUnauthorized
	}
	if sessionID == CurrentID {
		if auth.Session == nil {
			return nil, ErrObjectNotFound
		}
		return auth.Session, nil
	}
	// engine-issued session ids are UUIDs
	if !internal.ValidID(sessionID) {
		return nil, ErrObjectNotFound
	}

	sess, err := e.findSession(ctx, sessionID)
	if err != nil {
		return nil, storeError(err)
	}
	if err := e.RequireAuthorized(ctx, auth.User, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ListSessions returns the live sessions of the user resolved from userID.
func (e *Engine) ListSessions(ctx context.Context, auth *AuthResult, userID string) ([]*session.Session, error) {
	user, err := e.ResolveUser(ctx, auth, userID)
	if err != nil {
		return nil, err
	}

	sessions, err := e.sessions.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, storeError(err)
	}

	now := e.now()
	live := sessions[:0]
	for _, sess := range sessions {
		if sess != nil && !sess.Expired(now) {
			live = append(live, sess)
		}
	}
	return live, nil
}

// DestroySession resolves sessionID like ResolveSession and revokes it.
func (e *Engine) DestroySession(ctx context.Context, auth *AuthResult, sessionID string) error {
	sess, err := e.ResolveSession(ctx, auth, sessionID)
	if err != nil {
		return err
	}
	return e.Revoke(ctx, sess)
}
