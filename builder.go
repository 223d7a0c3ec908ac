package goIdentity

import (
	"errors"
	"strings"

	"github.com/MrEthical07/goIdentity/cache"
	"github.com/MrEthical07/goIdentity/internal"
	internalaudit "github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/internal/rate"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/password"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. Configure it during initialization, call Build once,
// and discard it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users       UserStore
	sessions    SessionStore
	cache       cache.Cache
	cacheSet    bool
	credentials CredentialVerifier
	auditSink   AuditSink
	logger      *zap.Logger

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client used for the default session store and, when
// Cache.Backend is "redis", for the verification cache.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the user lookup. Required.
func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

// WithSessionStore sets the session persistence. Without it a Redis-backed
// [session.Store] is created from the client given to WithRedis.
func (b *Builder) WithSessionStore(sessions SessionStore) *Builder {
	b.sessions = sessions
	return b
}

// WithCache overrides the configured verification cache. WithCache(nil) disables caching.
func (b *Builder) WithCache(c cache.Cache) *Builder {
	b.cache = c
	b.cacheSet = true
	return b
}

// WithCredentialVerifier replaces the Argon2id password verifier used by Login.
func (b *Builder) WithCredentialVerifier(v CredentialVerifier) *Builder {
	b.credentials = v
	return b
}

// WithAuditSink sets the audit destination. Audit.Enabled must also be set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. The default discards everything.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.logger = log
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready [Engine].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user store required")
	}

	// -------- SESSION STORE --------
	sessions := b.sessions
	if sessions == nil {
		if b.redis == nil {
			return nil, errors.New("session store or redis client required")
		}
		sessions = session.NewStore(b.redis, cfg.Session.RedisPrefix)
	}

	log := b.logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("goidentity")

	// -------- CACHE --------
	var verifyCache cache.Cache
	switch {
	case b.cacheSet:
		verifyCache = b.cache
	case !cfg.Cache.Enabled:
	case cfg.Cache.Backend == CacheRedis:
		if b.redis == nil {
			return nil, errors.New("redis cache backend requires redis client")
		}
		verifyCache = cache.NewRedis(b.redis, cache.RedisConfig{
			Prefix:       cfg.Cache.RedisPrefix,
			TTL:          cfg.Cache.TTL,
			TombstoneTTL: cfg.Cache.TombstoneTTL,
			Logger:       log.Named("cache"),
		})
	default:
		verifyCache = cache.NewMemory(cache.MemoryConfig{
			TTL:          cfg.Cache.TTL,
			MaxEntries:   cfg.Cache.MaxEntries,
			TombstoneTTL: cfg.Cache.TombstoneTTL,
		})
	}

	// -------- TOKEN CODEC --------
	codec, err := jwt.NewCodec(jwt.Config{
		SigningMethod: jwt.SigningMethod(strings.ToLower(cfg.Token.SigningMethod)),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
		MaxFutureIAT:  cfg.Token.MaxFutureIAT,
	})
	if err != nil {
		return nil, err
	}

	// -------- CREDENTIALS --------
	credentials := b.credentials
	var dummyHash string
	if credentials == nil {
		hasher, err := password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,

			MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
		})
		if err != nil {
			return nil, err
		}
		if dummyHash, err = hasher.DummyHash(); err != nil {
			return nil, err
		}
		credentials = hasher
	}

	// -------- LOGIN THROTTLE --------
	var throttle *rate.Limiter
	if cfg.LoginThrottle.Enabled {
		if b.redis == nil {
			return nil, errors.New("login throttle requires redis client")
		}
		throttle = rate.New(b.redis, rate.Config{
			Prefix:      cfg.LoginThrottle.RedisPrefix,
			MaxAttempts: cfg.LoginThrottle.MaxAttempts,
			Window:      cfg.LoginThrottle.Window,
			PerIP:       cfg.LoginThrottle.PerIP,
		})
	}

	engine := &Engine{
		config:      cfg,
		codec:       codec,
		users:       b.users,
		sessions:    sessions,
		cache:       verifyCache,
		credentials: credentials,
		throttle:    throttle,
		log:         log,
		metrics:     NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	engine.wireFlows(secretGenerator(cfg.Token.SecretLength), internal.NewSessionID, dummyHash)

	b.built = true

	return engine, nil
}

func secretGenerator(n int) func() ([]byte, error) {
	return func() ([]byte, error) {
		return internal.NewSecret(n)
	}
}
