package goIdentity

import "context"

type authResultContextKey struct{}
type clientIPContextKey struct{}

// WithAuthResult attaches a verified identity to ctx.
func WithAuthResult(ctx context.Context, auth *AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, auth)
}

// AuthResultFromContext returns the identity attached by [WithAuthResult], or nil.
func AuthResultFromContext(ctx context.Context) *AuthResult {
	if ctx == nil {
		return nil
	}
	auth, _ := ctx.Value(authResultContextKey{}).(*AuthResult)
	return auth
}

// WithClientIP attaches the caller's IP address to ctx. It is recorded in audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
