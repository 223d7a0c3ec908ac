package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/store"
)

// SessionStore implements goIdentity.SessionStore on SQLite. Expired rows are hidden
// from reads and removed by PurgeExpired.
type SessionStore struct {
	s *Storage
}

var _ goIdentity.SessionStore = (*SessionStore)(nil)

// Save inserts or replaces sess.
func (ss *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.ID == "" || sess.UserID == "" {
		return errors.New("sqlite: session id and user id are required")
	}
	if len(sess.Secret) == 0 {
		return errors.New("sqlite: session secret is required")
	}

	query := `
		INSERT INTO sessions (id, user_id, secret, token, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			secret = excluded.secret,
			token = excluded.token,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`
	_, err := ss.s.db.ExecContext(ctx, query,
		sess.ID,
		sess.UserID,
		sess.Secret,
		sess.Token,
		toUnix(sess.CreatedAt),
		toUnix(sess.ExpiresAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("session %s: user %s: %w", sess.ID, sess.UserID, store.ErrNotFound)
		}
		return unavailable("insert session", err)
	}
	return nil
}

// FindByID returns the live session with id.
func (ss *SessionStore) FindByID(ctx context.Context, id string) (*session.Session, error) {
	query := `
		SELECT id, user_id, secret, token, created_at, expires_at
		FROM sessions
		WHERE id = ? AND (expires_at = 0 OR expires_at > ?)
	`
	sess, err := scanSession(ss.s.db.QueryRowContext(ctx, query, id, ss.s.now().UnixNano()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, store.ErrNotFound)
		}
		return nil, unavailable("select session", err)
	}
	return sess, nil
}

// Delete removes sess. A missing row is not an error.
func (ss *SessionStore) Delete(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.ID == "" {
		return nil
	}
	if _, err := ss.s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sess.ID); err != nil {
		return unavailable("delete session", err)
	}
	return nil
}

// ListByUser returns the live sessions of userID, oldest first.
func (ss *SessionStore) ListByUser(ctx context.Context, userID string) ([]*session.Session, error) {
	query := `
		SELECT id, user_id, secret, token, created_at, expires_at
		FROM sessions
		WHERE user_id = ? AND (expires_at = 0 OR expires_at > ?)
		ORDER BY created_at, id
	`
	rows, err := ss.s.db.QueryContext(ctx, query, userID, ss.s.now().UnixNano())
	if err != nil {
		return nil, unavailable("list sessions", err)
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, unavailable("scan session", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list sessions", err)
	}
	return out, nil
}

// PurgeExpired deletes expired sessions and returns how many were removed.
func (ss *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := ss.s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at != 0 AND expires_at <= ?`, ss.s.now().UnixNano())
	if err != nil {
		return 0, unavailable("purge sessions", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*session.Session, error) {
	var (
		sess      session.Session
		createdAt int64
		expiresAt int64
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.Secret, &sess.Token, &createdAt, &expiresAt); err != nil {
		return nil, err
	}
	sess.CreatedAt = fromUnix(createdAt)
	sess.ExpiresAt = fromUnix(expiresAt)
	return &sess, nil
}
