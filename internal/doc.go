// Package internal contains helpers private to goIdentity: random identifiers and
// session secrets.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: the verify, issue, revoke and login orchestrators behind the Engine
//   - rate: Redis counters behind the failed-login throttle
package internal
