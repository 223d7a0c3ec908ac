package middleware

import (
	"context"
	"net/http"
	"strings"

	goIdentity "github.com/MrEthical07/goIdentity"
)

// TokenParam is the query or form parameter carrying the token.
const TokenParam = "token"

// Verifier is the part of [goIdentity.Engine] the guards need.
type Verifier interface {
	Verify(ctx context.Context, token string, requiredRole goIdentity.Role) (*goIdentity.AuthResult, error)
	Accept(ctx context.Context, token string) *goIdentity.AuthResult
}

// AuthFromContext returns the identity attached by RequireToken or AcceptToken.
func AuthFromContext(ctx context.Context) (*goIdentity.AuthResult, bool) {
	auth := goIdentity.AuthResultFromContext(ctx)
	return auth, auth != nil
}

// TokenFromRequest returns the token from the Authorization bearer header, falling back
// to the "token" query or form parameter.
func TokenFromRequest(r *http.Request) string {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return r.FormValue(TokenParam)
}

// RequireToken rejects requests without a token valid at requiredRole. The verified
// identity is stored in the request context.
func RequireToken(v Verifier, requiredRole goIdentity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				WriteError(w, goIdentity.ErrEngineNotReady, 0)
				return
			}

			token := TokenFromRequest(r)
			if token == "" {
				WriteError(w, goIdentity.ErrInvalidToken, 0)
				return
			}

			auth, err := v.Verify(r.Context(), token, requiredRole)
			if err != nil {
				WriteError(w, err, 0)
				return
			}

			next.ServeHTTP(w, r.WithContext(goIdentity.WithAuthResult(r.Context(), auth)))
		})
	}
}

// RequireAdmin is RequireToken at [goIdentity.RoleAdmin].
func RequireAdmin(v Verifier) func(http.Handler) http.Handler {
	return RequireToken(v, goIdentity.RoleAdmin)
}

// AcceptToken attaches the identity when the request carries a valid token and lets
// every request through.
func AcceptToken(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v != nil {
				if auth := v.Accept(r.Context(), TokenFromRequest(r)); auth != nil {
					r = r.WithContext(goIdentity.WithAuthResult(r.Context(), auth))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
