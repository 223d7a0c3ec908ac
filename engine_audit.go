package goIdentity

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSessionIssued       = "session_issued"
	auditEventSessionIssueFailure = "session_issue_failure"
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventSessionRevoked      = "session_revoked"
	auditEventRevokeAll           = "revoke_all"
	auditEventAuthorizationDenied = "authorization_denied"
)

// AuditErrorCode is the stable error classification written to [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrNotFound           AuditErrorCode = "not_found"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	actorID string,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ip := clientIPFromContext(ctx); ip != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["ip"] = ip
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		ActorID:   actorID,
		Success:   success,
		Metadata:  metadata,
	}
	if auth := AuthResultFromContext(ctx); actorID == "" && auth != nil && auth.User != nil {
		event.ActorID = auth.User.ID
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrObjectNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrLoginThrottled):
		return auditErrRateLimited
	case errors.Is(err, ErrPersistence):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
