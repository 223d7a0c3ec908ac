package goIdentity

import "context"

// Authorize reports whether actor may act on target.
//
//   - a nil actor is never authorized
//   - an actor at or above RoleAdmin is authorized for every target
//   - a *User target requires the actor to be that user
//   - any other target requires target.OwnerID() to equal the actor's ID
//
// An actor without an ID only passes the admin rule.
func Authorize(actor *User, target Resource) bool {
	if actor == nil {
		return false
	}
	if actor.Role.Satisfies(RoleAdmin) {
		return true
	}
	if actor.ID == "" || target == nil {
		return false
	}

	switch t := target.(type) {
	case *User:
		return t != nil && t.ID == actor.ID
	default:
		return t.OwnerID() == actor.ID
	}
}

// Authorize is [Authorize] with denials counted in the engine metrics.
func (e *Engine) Authorize(actor *User, target Resource) bool {
	ok := Authorize(actor, target)
	if !ok && e != nil {
		e.metrics.Inc(MetricAuthorizationDenied)
	}
	return ok
}

// RequireAuthorized returns [ErrUnauthorized] when actor may not act on target. Denials
// are counted and audited.
func (e *Engine) RequireAuthorized(ctx context.Context, actor *User, target Resource) error {
	if e.Authorize(actor, target) {
		return nil
	}

	var ownerID string
	if target != nil {
		ownerID = target.OwnerID()
	}
	e.emitAudit(ctx, auditEventAuthorizationDenied, false, actor.OwnerID(), ownerID, "", ErrUnauthorized, nil)

	return ErrUnauthorized
}
