// Package store defines the error contract shared by goIdentity persistence backends.
//
// Backends (Redis session store, SQLite store, or host-provided implementations) report a
// missing record by returning an error that wraps [ErrNotFound] and an I/O failure by
// returning an error that wraps [ErrUnavailable]. The engine relies on [errors.Is] only.
package store

import "errors"

var (
	// ErrNotFound indicates that the requested user or session does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrUnavailable indicates that the backend could not complete the operation.
	ErrUnavailable = errors.New("store unavailable")

	// ErrConflict indicates a uniqueness violation (for example a duplicate username).
	ErrConflict = errors.New("object already exists")
)
