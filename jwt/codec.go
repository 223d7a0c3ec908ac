package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed reports a token whose structure or encoding cannot be parsed.
	ErrMalformed = errors.New("malformed token")
	// ErrSignatureInvalid reports a token whose signature does not match the secret.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired reports a token whose exp claim is in the past.
	ErrExpired = errors.New("token expired")
	// ErrClaimsInvalid reports a verified token whose registered claims fail validation
	// (issuer, not-before, issued-at in the future).
	ErrClaimsInvalid = errors.New("token claims invalid")
	// ErrEmptySecret is returned when encoding or verifying with an empty secret.
	ErrEmptySecret = errors.New("empty signing secret")
)

// SigningMethod names one of the supported HMAC algorithms.
type SigningMethod string

const (
	MethodHS256 SigningMethod = "hs256"
	MethodHS384 SigningMethod = "hs384"
	MethodHS512 SigningMethod = "hs512"
)

// Config configures a [Codec]. The zero value of optional fields disables the
// corresponding check.
type Config struct {
	SigningMethod SigningMethod
	Issuer        string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

// Claims is the token payload: the owning user, the session whose secret signs the
// token, and the registered claims (exp, iat, iss).
type Claims struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Codec encodes and decodes tokens. A Codec holds no keys and is safe for concurrent use.
type Codec struct {
	config Config
	method *jwt.SigningMethodHMAC
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	var method *jwt.SigningMethodHMAC
	switch cfg.SigningMethod {
	case MethodHS256, "":
		cfg.SigningMethod = MethodHS256
		method = jwt.SigningMethodHS256
	case MethodHS384:
		method = jwt.SigningMethodHS384
	case MethodHS512:
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	return &Codec{config: cfg, method: method}, nil
}

// Algorithm returns the JWS alg header value produced by Encode.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// NewClaims builds the claims for a session token. A zero expiresAt omits exp.
func (c *Codec) NewClaims(userID, sessionID string, issuedAt, expiresAt time.Time) Claims {
	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
			Issuer:   c.config.Issuer,
		},
	}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}
	return claims
}

// Encode signs claims with secret.
func (c *Codec) Encode(claims Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(secret)
}

// DecodeUnverified parses the token structure and returns its claims without checking
// the signature or expiry. Only ErrMalformed is returned.
func (c *Codec) DecodeUnverified(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformed
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser(jwt.WithStrictDecoding()).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// DecodeVerified parses the token and validates its signature against secret, then its
// registered claims.
func (c *Codec) DecodeVerified(token string, secret []byte) (*Claims, error) {
	if len(secret) == 0 {
		return nil, ErrSignatureInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithStrictDecoding(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrClaimsInvalid
	}
	if claims.IssuedAt != nil && c.config.MaxFutureIAT > 0 {
		if claims.IssuedAt.Time.After(time.Now().Add(c.config.MaxFutureIAT)) {
			return nil, fmt.Errorf("%w: iat too far in the future", ErrClaimsInvalid)
		}
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrClaimsInvalid, err)
	}
}
