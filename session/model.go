package session

import "time"

// Session is an authenticated login of one user. Secret is the only key able to verify
// tokens bound to this session; it is generated once at creation and never reused.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Secret    []byte    `json:"-"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OwnerID returns the ID of the user the session belongs to.
func (s *Session) OwnerID() string {
	if s == nil {
		return ""
	}
	return s.UserID
}

// Expired reports whether the session is past its expiry at now. A zero ExpiresAt never
// expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy so callers can hand sessions across goroutines without
// sharing the secret slice.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Secret != nil {
		out.Secret = make([]byte, len(s.Secret))
		copy(out.Secret, s.Secret)
	}
	return &out
}
