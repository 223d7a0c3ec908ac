package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/session"
)

// IssueFailureKind classifies issuance failures.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureSecret
	IssueFailureEncode
	IssueFailurePersist
)

// IssueDeps captures session issuance dependencies.
type IssueDeps struct {
	NewSessionID func() string
	NewSecret    func() ([]byte, error)
	Now          func() time.Time
	// TTL is the session lifetime. Zero issues a session without expiry.
	TTL       time.Duration
	NewClaims func(userID, sessionID string, issuedAt, expiresAt time.Time) jwt.Claims
	Encode    func(jwt.Claims, []byte) (string, error)
	Save      func(context.Context, *session.Session) error
}

// IssueResult carries the new session or a classified failure.
type IssueResult struct {
	Failure IssueFailureKind
	Err     error
	Session *session.Session
}

// RunIssue creates, signs and persists a new session for userID. Nothing is persisted
// unless signing succeeded, and a failed Save is not retried.
func RunIssue(ctx context.Context, userID string, deps IssueDeps) IssueResult {
	secret, err := deps.NewSecret()
	if err != nil {
		return IssueResult{Failure: IssueFailureSecret, Err: err}
	}

	now := deps.Now()
	sess := &session.Session{
		ID:        deps.NewSessionID(),
		UserID:    userID,
		Secret:    secret,
		CreatedAt: now,
	}
	if deps.TTL > 0 {
		sess.ExpiresAt = now.Add(deps.TTL)
	}

	token, err := deps.Encode(deps.NewClaims(userID, sess.ID, now, sess.ExpiresAt), secret)
	if err != nil {
		return IssueResult{Failure: IssueFailureEncode, Err: err}
	}
	sess.Token = token

	if err := deps.Save(ctx, sess); err != nil {
		return IssueResult{Failure: IssueFailurePersist, Err: err}
	}

	return IssueResult{Session: sess}
}
