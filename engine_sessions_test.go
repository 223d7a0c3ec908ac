package goIdentity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goIdentity/store"
)

func TestLogin(t *testing.T) {
	f := newTestFixture(t, testConfig())
	ctx := context.Background()

	auth, err := f.engine.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if auth.User.ID != f.alice.ID || auth.Session == nil {
		t.Fatalf("unexpected login result: %+v", auth)
	}
	if _, err := f.engine.Verify(ctx, auth.Session.Token, RoleUser); err != nil {
		t.Fatalf("login token rejected: %v", err)
	}

	for name, creds := range map[string][2]string{
		"wrong password": {"alice", "wrong-password-123"},
		"empty password": {"alice", ""},
		"unknown user":   {"mallory", testPassword},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := f.engine.Login(ctx, creds[0], creds[1]); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}

	snap := f.engine.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 || snap.Counters[MetricLoginFailure] != 3 {
		t.Fatalf("login success/failure = %d/%d, want 1/3", snap.Counters[MetricLoginSuccess], snap.Counters[MetricLoginFailure])
	}
}

func TestLoginBackendFailure(t *testing.T) {
	f := newTestFixture(t, testConfig())
	f.users.setErr(store.ErrUnavailable)

	_, err := f.engine.Login(context.Background(), "alice", testPassword)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

type staticVerifier bool

func (v staticVerifier) Verify(string, string) (bool, error) { return bool(v), nil }

func TestLoginWithCustomCredentialVerifier(t *testing.T) {
	f := newTestFixture(t, testConfig(), func(b *Builder) {
		b.WithCredentialVerifier(staticVerifier(true))
	})

	if _, err := f.engine.Login(context.Background(), "bob", "anything-goes"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}

func TestIssueFor(t *testing.T) {
	f := newTestFixture(t, testConfig())
	ctx := context.Background()

	sess, err := f.engine.IssueFor(ctx, f.alice, CurrentID)
	if err != nil || sess.UserID != f.alice.ID {
		t.Fatalf("IssueFor(current) = %+v, %v", sess, err)
	}

	if _, err := f.engine.IssueFor(ctx, f.alice, f.bob.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.engine.IssueFor(ctx, f.admin, "missing"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}

	sess, err = f.engine.IssueFor(ctx, f.admin, f.bob.ID)
	if err != nil || sess.UserID != f.bob.ID {
		t.Fatalf("admin IssueFor(bob) = %+v, %v", sess, err)
	}
	if _, err := f.engine.IssueFor(ctx, nil, f.bob.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for nil actor, got %v", err)
	}
}

func TestResolveUser(t *testing.T) {
	f := newTestFixture(t, testConfig())
	ctx := context.Background()
	auth := &AuthResult{User: f.alice}

	for _, id := range []string{"", CurrentID, f.alice.ID} {
		user, err := f.engine.ResolveUser(ctx, auth, id)
		if err != nil || user.ID != f.alice.ID {
			t.Fatalf("ResolveUser(%q) = %+v, %v", id, user, err)
		}
	}
	if _, err := f.engine.ResolveUser(ctx, auth, f.bob.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.engine.ResolveUser(ctx, auth, "missing"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if _, err := f.engine.ResolveUser(ctx, nil, CurrentID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without auth, got %v", err)
	}

	f.users.setErr(store.ErrUnavailable)
	if _, err := f.engine.ResolveUser(ctx, &AuthResult{User: f.admin}, f.bob.ID); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestResolveSessionAndDestroy(t *testing.T) {
	f := newTestFixture(t, testConfig())
	ctx := context.Background()

	aliceSess := f.issue(t, f.alice)
	bobSess := f.issue(t, f.bob)
	auth, err := f.engine.Verify(ctx, aliceSess.Token, RolePublic)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	current, err := f.engine.ResolveSession(ctx, auth, CurrentID)
	if err != nil || current.ID != aliceSess.ID {
		t.Fatalf("ResolveSession(current) = %+v, %v", current, err)
	}
	if _, err := f.engine.ResolveSession(ctx, auth, bobSess.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.engine.ResolveSession(ctx, auth, "missing"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}

	// an admin may end anyone's session
	adminAuth := &AuthResult{User: f.admin}
	if err := f.engine.DestroySession(ctx, adminAuth, bobSess.ID); err != nil {
		t.Fatalf("admin DestroySession failed: %v", err)
	}
	if _, err := f.engine.Verify(ctx, bobSess.Token, RolePublic); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	if err := f.engine.DestroySession(ctx, auth, CurrentID); err != nil {
		t.Fatalf("DestroySession(current) failed: %v", err)
	}
	if _, err := f.engine.Verify(ctx, aliceSess.Token, RolePublic); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestListSessions(t *testing.T) {
	f := newTestFixture(t, testConfig())
	ctx := context.Background()

	f.issue(t, f.alice)
	f.issue(t, f.alice)
	f.issue(t, f.bob)

	auth := &AuthResult{User: f.alice}
	list, err := f.engine.ListSessions(ctx, auth, CurrentID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListSessions = %d, %v; want 2", len(list), err)
	}
	for _, sess := range list {
		if sess.UserID != f.alice.ID {
			t.Fatalf("foreign session listed: %+v", sess)
		}
	}

	if _, err := f.engine.ListSessions(ctx, auth, f.bob.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	list, err = f.engine.ListSessions(ctx, &AuthResult{User: f.admin}, f.bob.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("admin ListSessions(bob) = %d, %v; want 1", len(list), err)
	}
}

func TestLoginThrottle(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := testConfig()
	cfg.LoginThrottle.Enabled = true
	cfg.LoginThrottle.MaxAttempts = 2
	cfg.LoginThrottle.Window = time.Minute
	f := newTestFixture(t, cfg, func(b *Builder) { b.WithRedis(rdb) })
	ctx := WithClientIP(context.Background(), "10.0.0.7")

	for i := 0; i < 2; i++ {
		if _, err := f.engine.Login(ctx, "alice", "wrong-password-123"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// the correct password is refused while the window is spent
	if _, err := f.engine.Login(ctx, "alice", testPassword); !errors.Is(err, ErrLoginThrottled) {
		t.Fatalf("expected ErrLoginThrottled, got %v", err)
	}
	if f.sessions.count() != 0 {
		t.Fatal("throttled login issued a session")
	}
	// same address, other account
	if _, err := f.engine.Login(ctx, "bob", testPassword); !errors.Is(err, ErrLoginThrottled) {
		t.Fatalf("expected per-IP throttle, got %v", err)
	}
	if _, err := f.engine.Login(context.Background(), "bob", testPassword); err != nil {
		t.Fatalf("login from unknown address failed: %v", err)
	}

	mr.FastForward(time.Minute + time.Second)
	if _, err := f.engine.Login(ctx, "alice", testPassword); err != nil {
		t.Fatalf("login after window failed: %v", err)
	}
	if mr.Exists("il:u:alice") {
		t.Fatal("successful login did not reset the username counter")
	}

	if n := f.engine.MetricsSnapshot().Counters[MetricLoginThrottled]; n != 2 {
		t.Fatalf("MetricLoginThrottled = %d, want 2", n)
	}
}

func TestLoginThrottleBackendFailure(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := testConfig()
	cfg.LoginThrottle.Enabled = true
	f := newTestFixture(t, cfg, func(b *Builder) { b.WithRedis(rdb) })

	mr.SetError("ERR backend down")
	if _, err := f.engine.Login(context.Background(), "alice", testPassword); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
