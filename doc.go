// Package goIdentity is an identity-provider core: it issues per-session signed
// tokens, verifies them against the session store with an optional cache in front,
// revokes sessions immediately and evaluates role and ownership authorization.
//
// Every session carries its own random secret. A token is decoded without verification
// to learn its user and session, the session is loaded, and only then is the signature
// checked with that session's secret. Deleting a session therefore invalidates all of
// its tokens; [Engine.Revoke] also evicts them from the cache before returning.
//
// [Engine] methods are safe for concurrent use after [Builder.Build].
//
// # Architecture boundaries
//
// goIdentity is the public surface. It exposes [Engine], [Builder], [Config], the store
// contracts ([UserStore], [SessionStore], [CredentialVerifier]) and value types. Flow
// orchestration and audit dispatch live under internal/.
//
// # What this package must NOT do
//
//   - Log or audit tokens, secrets or passwords.
//   - Let a cache failure change a verification outcome.
//   - Import any sub-package that re-imports goIdentity.
package goIdentity
