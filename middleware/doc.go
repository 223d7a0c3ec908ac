// Package middleware adapts [goIdentity.Engine] verification to net/http.
//
//   - [RequireToken] rejects requests without a token valid at a role.
//   - [RequireAdmin] is RequireToken at the admin role.
//   - [AcceptToken] attaches the identity when present and never rejects.
//
// Tokens are read by [TokenFromRequest]. [Status] maps engine errors to HTTP
// status codes.
//
// This package does not parse tokens or talk to stores; every decision is made by
// the engine.
package middleware
