package goIdentity

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration. Start from [DefaultConfig] or
// [LoadConfig] and adjust fields before passing it to [Builder.WithConfig].
type Config struct {
	Token         TokenConfig         `yaml:"token"`
	Session       SessionConfig       `yaml:"session"`
	Cache         CacheConfig         `yaml:"cache"`
	Password      PasswordConfig      `yaml:"password"`
	LoginThrottle LoginThrottleConfig `yaml:"login_throttle"`
	Authorization AuthorizationConfig `yaml:"authorization"`
	Audit         AuditConfig         `yaml:"audit"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls token signing and session secrets.
type TokenConfig struct {
	// SigningMethod is one of HS256, HS384, HS512.
	SigningMethod string `yaml:"signing_method"`
	Issuer        string `yaml:"issuer"`
	// TTL is the session lifetime written to the exp claim. Zero issues tokens without exp.
	TTL time.Duration `yaml:"ttl"`
	// SecretLength is the number of random bytes in each session secret.
	SecretLength int           `yaml:"secret_length"`
	Leeway       time.Duration `yaml:"leeway"`
	// MaxFutureIAT rejects tokens issued further in the future than this. Zero disables the check.
	MaxFutureIAT time.Duration `yaml:"max_future_iat"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the Redis session store created by [Builder.WithRedis].
type SessionConfig struct {
	RedisPrefix string `yaml:"redis_prefix"`
}

/*
====================================
CACHE CONFIG
====================================
*/

// CacheBackend selects the verification cache implementation.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

// CacheConfig controls the verification cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Backend CacheBackend  `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	// MaxEntries bounds the memory backend. Zero means unbounded.
	MaxEntries int `yaml:"max_entries"`
	// TombstoneTTL is how long a revoked session refuses new cache entries. It should
	// exceed the longest verification.
	TombstoneTTL time.Duration `yaml:"tombstone_ttl"`
	RedisPrefix  string        `yaml:"redis_prefix"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id parameters of the default credential verifier.
type PasswordConfig struct {
	Memory      uint32 `yaml:"memory"` // in KB
	Time        uint32 `yaml:"time"`
	Parallelism uint8  `yaml:"parallelism"`
	SaltLength  uint32 `yaml:"salt_length"`
	KeyLength   uint32 `yaml:"key_length"`
	// MaxPasswordBytes caps login input. Zero uses the password package default.
	MaxPasswordBytes int `yaml:"max_password_bytes"`
}

// LoginThrottleConfig limits failed logins per username and client IP. It needs
// the Redis client passed to [Builder.WithRedis].
type LoginThrottleConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"max_attempts"`
	Window      time.Duration `yaml:"window"`
	PerIP       bool          `yaml:"per_ip"`
	RedisPrefix string        `yaml:"redis_prefix"`
}

/*
====================================
AUTHORIZATION CONFIG
====================================
*/

// AuthorizationConfig controls how denials are reported over HTTP.
type AuthorizationConfig struct {
	// DenyStatus is the HTTP status for ErrUnauthorized: 403 (default) or 401.
	DenyStatus int `yaml:"deny_status"`
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod: "HS256",
			Issuer:        "",
			TTL:           7 * 24 * time.Hour,
			SecretLength:  32,
			Leeway:        0,
			MaxFutureIAT:  time.Minute,
		},
		Session: SessionConfig{
			RedisPrefix: "is",
		},
		Cache: CacheConfig{
			Enabled:      true,
			Backend:      CacheMemory,
			TTL:          5 * time.Minute,
			MaxEntries:   10000,
			TombstoneTTL: time.Minute,
			RedisPrefix:  "ic",
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		LoginThrottle: LoginThrottleConfig{
			Enabled:     false,
			MaxAttempts: 5,
			Window:      15 * time.Minute,
			PerIP:       true,
			RedisPrefix: "il",
		},
		Authorization: AuthorizationConfig{
			DenyStatus: http.StatusForbidden,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// LoadConfig reads a YAML file over [DefaultConfig] and validates the result. Keys
// missing from the file keep their default values. Durations use Go syntax ("15m").
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Token
	switch strings.ToUpper(c.Token.SigningMethod) {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported token signing method %q", c.Token.SigningMethod)
	}
	if c.Token.TTL < 0 {
		return errors.New("Token TTL must be >= 0")
	}
	if c.Token.SecretLength < 32 {
		return errors.New("Token SecretLength must be >= 32")
	}
	if c.Token.SecretLength > 255 {
		return errors.New("Token SecretLength must be <= 255")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}
	if c.Token.MaxFutureIAT < 0 {
		return errors.New("Token MaxFutureIAT must be >= 0")
	}

	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}

	// Cache
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case CacheMemory, CacheRedis:
		default:
			return fmt.Errorf("unsupported cache backend %q", c.Cache.Backend)
		}
		if c.Cache.TTL <= 0 {
			return errors.New("Cache TTL must be > 0")
		}
		if c.Cache.MaxEntries < 0 {
			return errors.New("Cache MaxEntries must be >= 0")
		}
		if c.Cache.TombstoneTTL <= 0 {
			return errors.New("Cache TombstoneTTL must be > 0")
		}
		if c.Cache.Backend == CacheRedis && c.Cache.RedisPrefix == "" {
			return errors.New("Cache RedisPrefix must not be empty")
		}
		if c.Cache.Backend == CacheRedis && c.Cache.RedisPrefix == c.Session.RedisPrefix {
			return errors.New("Cache RedisPrefix must differ from Session RedisPrefix")
		}
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password MaxPasswordBytes must be >= 0")
	}

	// Login throttle
	if c.LoginThrottle.Enabled {
		if c.LoginThrottle.MaxAttempts < 1 {
			return errors.New("LoginThrottle MaxAttempts must be >= 1")
		}
		if c.LoginThrottle.Window <= 0 {
			return errors.New("LoginThrottle Window must be > 0")
		}
		switch c.LoginThrottle.RedisPrefix {
		case "":
			return errors.New("LoginThrottle RedisPrefix must not be empty")
		case c.Session.RedisPrefix, c.Cache.RedisPrefix:
			return errors.New("LoginThrottle RedisPrefix must differ from the session and cache prefixes")
		}
	}

	// Authorization
	if c.Authorization.DenyStatus != http.StatusForbidden && c.Authorization.DenyStatus != http.StatusUnauthorized {
		return errors.New("Authorization DenyStatus must be 401 or 403")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
