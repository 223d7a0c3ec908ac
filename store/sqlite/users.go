package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/store"
)

// UserStore implements goIdentity.UserStore on SQLite.
type UserStore struct {
	s *Storage
}

var _ goIdentity.UserStore = (*UserStore)(nil)

// Create inserts user. A taken ID or username returns an error wrapping store.ErrConflict.
func (u *UserStore) Create(ctx context.Context, user *goIdentity.User) error {
	if user == nil || user.ID == "" || user.Username == "" {
		return errors.New("sqlite: user id and username are required")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = u.s.now()
	}

	query := `
		INSERT INTO users (id, username, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := u.s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		int(user.Role),
		toUnix(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Username, store.ErrConflict)
		}
		return unavailable("insert user", err)
	}
	return nil
}

// FindByID returns the user with id.
func (u *UserStore) FindByID(ctx context.Context, id string) (*goIdentity.User, error) {
	return u.findOne(ctx, "id", id)
}

// FindByUsername returns the user with username.
func (u *UserStore) FindByUsername(ctx context.Context, username string) (*goIdentity.User, error) {
	return u.findOne(ctx, "username", username)
}

func (u *UserStore) findOne(ctx context.Context, column, value string) (*goIdentity.User, error) {
	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE ` + column + ` = ?
	`

	var (
		user      goIdentity.User
		role      int
		createdAt int64
	)
	err := u.s.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&role,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s=%q: %w", column, value, store.ErrNotFound)
		}
		return nil, unavailable("select user", err)
	}

	user.Role = goIdentity.Role(role)
	user.CreatedAt = fromUnix(createdAt)
	return &user, nil
}

// SetRole changes the role of user id.
func (u *UserStore) SetRole(ctx context.Context, id string, role goIdentity.Role) error {
	return u.update(ctx, `UPDATE users SET role = ? WHERE id = ?`, int(role), id)
}

// SetPasswordHash replaces the stored credential of user id.
func (u *UserStore) SetPasswordHash(ctx context.Context, id, hash string) error {
	return u.update(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
}

// Delete removes user id and, through the foreign key, its sessions. Sessions cached
// by an engine are not evicted; revoke them first.
func (u *UserStore) Delete(ctx context.Context, id string) error {
	return u.update(ctx, `DELETE FROM users WHERE id = ?`, id)
}

func (u *UserStore) update(ctx context.Context, query string, args ...any) error {
	res, err := u.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return unavailable("update user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update user", err)
	}
	if n == 0 {
		return fmt.Errorf("user %v: %w", args[len(args)-1], store.ErrNotFound)
	}
	return nil
}
