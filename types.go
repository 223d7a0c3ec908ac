package goIdentity

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/session"
	"go.uber.org/zap"
)

// Role is an ordered privilege level. A higher value satisfies every lower requirement.
type Role int

const (
	// RolePublic is the level of any authenticated user and the requirement of open endpoints.
	RolePublic Role = 0
	// RoleUser is the level of a regular account.
	RoleUser Role = 100
	// RoleAdmin may act on every resource.
	RoleAdmin Role = 1000
)

// String returns the lower-case role name.
func (r Role) String() string {
	switch r {
	case RolePublic:
		return "public"
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Satisfies reports whether r meets the required level.
func (r Role) Satisfies(required Role) bool {
	return r >= required
}

// ParseRole parses a role name as produced by [Role.String].
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return RolePublic, nil
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User is an account known to the [UserStore].
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// OwnerID returns the user's own ID; a user owns itself.
func (u *User) OwnerID() string {
	if u == nil {
		return ""
	}
	return u.ID
}

// Resource is anything with an owning user. Authorization compares the owner with the actor.
type Resource interface {
	OwnerID() string
}

// AuthResult is the identity established by a successful verification.
type AuthResult struct {
	User    *User
	Session *session.Session
}

// UserStore resolves users. Missing users are reported with an error wrapping
// store.ErrNotFound and backend failures with one wrapping store.ErrUnavailable.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// SessionStore persists sessions. It follows the same error contract as [UserStore].
// Delete of a missing session must succeed.
type SessionStore interface {
	FindByID(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, sess *session.Session) error
	Delete(ctx context.Context, sess *session.Session) error
	ListByUser(ctx context.Context, userID string) ([]*session.Session, error)
}

// CredentialVerifier checks a plaintext password against a stored credential.
// The password package provides an Argon2id implementation.
type CredentialVerifier interface {
	Verify(password string, encodedHash string) (bool, error)
}

// AuditEvent is an alias of the internal audit event type.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the engine's dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink discards audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink forwards audit events to a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink logs audit events through zap.
type ZapSink = internalaudit.ZapSink

// NewChannelSink creates a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZapSink creates a [ZapSink] on log.
func NewZapSink(log *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(log)
}
