// Package session provides the Session model, its compact binary encoding, and a
// Redis-backed session store.
//
// # Binary encoding
//
// Sessions are stored as a versioned binary blob. The encoder is append-only: new versions
// add fields but never reinterpret old ones. The blob carries the per-session signing
// secret, so it must only be written to trusted storage.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model. It does NOT
// interpret tokens, evaluate roles, or decide authorization; those belong to the engine.
//
// # What this package must NOT do
//
//   - Import goIdentity, jwt, or cache (no upward imports).
//   - Render Secret in any serialized form other than the storage encoding.
package session
