// Package flows contains the orchestrators behind every Engine operation.
//
// Each flow function (RunVerify, RunIssue, RunRevoke, RunLogin) accepts a typed
// dependency struct and returns a classified result. Flows do not own the stores, the
// codec or the cache; the Engine does. Flows that handle users are generic over the
// host user type so this package never imports goIdentity.
//
// Flows hold no state between calls and perform no I/O except through their
// dependencies.
package flows
