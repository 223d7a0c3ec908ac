package goIdentity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goIdentity/password"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testPassword = "correct-password-123"

type memUserStore struct {
	mu    sync.RWMutex
	users map[string]*User
	err   error
}

func newMemUserStore(users ...*User) *memUserStore {
	s := &memUserStore{users: map[string]*User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) FindByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	out := *u
	return &out, nil
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
}

func (s *memUserStore) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *memUserStore) setRole(id string, role Role) {
	s.mu.Lock()
	s.users[id].Role = role
	s.mu.Unlock()
}

// memSessionStore keeps sessions in a map. It does not hide expired sessions.
type memSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	err      error
	onFind   func(id string)
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]*session.Session{}}
}

func (s *memSessionStore) FindByID(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	hook := s.onFind
	sess, ok := s.sessions[id]
	err := s.err
	s.mu.RUnlock()

	if hook != nil {
		hook(id)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, store.ErrNotFound)
	}
	return sess.Clone(), nil
}

func (s *memSessionStore) Save(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *memSessionStore) Delete(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.sessions, sess.ID)
	return nil
}

func (s *memSessionStore) ListByUser(_ context.Context, userID string) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []*session.Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess.Clone())
		}
	}
	return out, nil
}

func (s *memSessionStore) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *memSessionStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.TTL = time.Hour
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	return cfg
}

func testHash(t *testing.T, pw string) string {
	t.Helper()
	hasher, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	hash, err := hasher.Hash(pw)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return hash
}

type testFixture struct {
	engine   *Engine
	users    *memUserStore
	sessions *memSessionStore

	alice *User
	bob   *User
	admin *User
}

func newTestFixture(t *testing.T, cfg Config, opts ...func(*Builder)) *testFixture {
	t.Helper()

	hash := testHash(t, testPassword)
	f := &testFixture{
		alice:    &User{ID: "u-alice", Username: "alice", PasswordHash: hash, Role: RoleUser},
		bob:      &User{ID: "u-bob", Username: "bob", PasswordHash: hash, Role: RoleUser},
		admin:    &User{ID: "u-admin", Username: "root", PasswordHash: hash, Role: RoleAdmin},
		sessions: newMemSessionStore(),
	}
	f.users = newMemUserStore(f.alice, f.bob, f.admin)

	builder := New().
		WithConfig(cfg).
		WithUserStore(f.users).
		WithSessionStore(f.sessions)
	for _, opt := range opts {
		opt(builder)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	f.engine = engine

	return f
}

func (f *testFixture) issue(t *testing.T, user *User) *session.Session {
	t.Helper()
	sess, err := f.engine.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return sess
}
