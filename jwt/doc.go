// Package jwt encodes and decodes per-session HMAC-signed tokens.
//
// # Two-phase decode
//
// Tokens are signed with the secret of the session they name, not with a global key.
// [Codec.DecodeUnverified] reads the claims without a key so the caller can resolve the
// candidate session; [Codec.DecodeVerified] then confirms the signature with that session's
// secret. Claims returned by DecodeUnverified are untrusted and must only be used to look
// up the verification key.
//
// # What this package must NOT do
//
//   - Hold or cache secrets between calls.
//   - Resolve sessions or users (that belongs to the engine).
package jwt
