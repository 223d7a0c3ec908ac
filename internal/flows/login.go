package flows

import (
	"context"
)

// LoginFailureKind classifies credential check failures.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureUnknownUser
	LoginFailureBadPassword
	LoginFailureBackend
)

// LoginDeps captures credential check dependencies. U is the host user type.
type LoginDeps[U any] struct {
	FindByUsername func(context.Context, string) (U, error)
	PasswordHash   func(U) string
	VerifyPassword func(password, encodedHash string) (bool, error)
	IsNotFound     func(error) bool
	// DummyHash is verified against when the user does not exist so unknown
	// usernames cost the same as wrong passwords.
	DummyHash string
}

// LoginResult carries the authenticated user or a classified failure.
type LoginResult[U any] struct {
	Failure LoginFailureKind
	Err     error
	User    U
}

// RunLogin checks username and password. It never issues a session.
func RunLogin[U any](ctx context.Context, username, password string, deps LoginDeps[U]) LoginResult[U] {
	user, err := deps.FindByUsername(ctx, username)
	if err != nil {
		if deps.IsNotFound != nil && deps.IsNotFound(err) {
			if deps.DummyHash != "" {
				_, _ = deps.VerifyPassword(password, deps.DummyHash)
			}
			return LoginResult[U]{Failure: LoginFailureUnknownUser, Err: err}
		}
		return LoginResult[U]{Failure: LoginFailureBackend, Err: err}
	}

	if password == "" {
		return LoginResult[U]{Failure: LoginFailureBadPassword}
	}

	ok, err := deps.VerifyPassword(password, deps.PasswordHash(user))
	if err != nil {
		return LoginResult[U]{Failure: LoginFailureBadPassword, Err: err}
	}
	if !ok {
		return LoginResult[U]{Failure: LoginFailureBadPassword}
	}

	return LoginResult[U]{User: user}
}
