package goIdentity

import (
	"errors"

	"github.com/MrEthical07/goIdentity/jwt"
)

var (
	// ErrInvalidToken is the single verification failure exposed to callers. It covers
	// malformed tokens, missing claims, unknown users or sessions, insufficient role and
	// failed signature or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMalformedToken aliases the codec failure for tokens that cannot be parsed.
	ErrMalformedToken = jwt.ErrMalformed
	// ErrSignatureInvalid aliases the codec failure for a bad signature or algorithm.
	ErrSignatureInvalid = jwt.ErrSignatureInvalid
	// ErrExpiredToken aliases the codec failure for an expired token.
	ErrExpiredToken = jwt.ErrExpired
	// ErrObjectNotFound is returned when a referenced user or session does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrUnauthorized is returned when the actor may not access the target.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPersistence wraps store and cache backend failures.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidCredentials is returned by Login for an unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginThrottled is returned by Login while the username or client IP is over its
	// failed-attempt budget.
	ErrLoginThrottled = errors.New("too many login attempts")
	// ErrEngineNotReady is returned when a required collaborator was not configured.
	ErrEngineNotReady = errors.New("engine not initialized")
)
