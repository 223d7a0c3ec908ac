// Package cache holds verified sessions keyed by raw token so repeated verification
// of the same token can skip the store round trips and the signature check.
//
// Two implementations are provided: [Memory] for a single process and [Redis] for a
// cache shared between processes. Both keep a per-session index so that
// [Cache.InvalidateBySession] removes every token of a session in one call, and both
// record a short-lived tombstone so a concurrent verifier cannot re-insert a session
// that was revoked while it was being checked.
//
// A cache is an accelerator only. Callers must produce the same outcome with or without it.
package cache
