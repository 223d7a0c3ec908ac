package goIdentity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goIdentity/cache"
	internalaudit "github.com/MrEthical07/goIdentity/internal/audit"
	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/internal/rate"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/store"
	"go.uber.org/zap"
)

// Engine issues, verifies and revokes session tokens. It is created by [Builder.Build]
// and is safe for concurrent use.
type Engine struct {
	config      Config
	codec       *jwt.Codec
	users       UserStore
	sessions    SessionStore
	cache       cache.Cache
	credentials CredentialVerifier
	throttle    *rate.Limiter
	log         *zap.Logger
	metrics     *Metrics
	audit       *internalaudit.Dispatcher
	flows       flows.Deps[*User]
	now         func() time.Time
}

func (e *Engine) wireFlows(newSecret func() ([]byte, error), newSessionID func() string, dummyHash string) {
	if e.now == nil {
		e.now = time.Now
	}

	e.flows = flows.Deps[*User]{
		Verify: flows.VerifyDeps[*User]{
			DecodeUnverified: e.codec.DecodeUnverified,
			DecodeVerified:   e.codec.DecodeVerified,
			FindUser:         e.findUser,
			FindSession:      e.findSession,
			IsNotFound:       isNotFound,
			Cache:            e.cache,
			Now:              e.now,
		},
		Issue: flows.IssueDeps{
			NewSessionID: newSessionID,
			NewSecret:    newSecret,
			Now:          e.now,
			TTL:          e.config.Token.TTL,
			NewClaims:    e.codec.NewClaims,
			Encode:       e.codec.Encode,
			Save:         e.sessions.Save,
		},
		Revoke: flows.RevokeDeps{
			Delete:     e.sessions.Delete,
			ListByUser: e.sessions.ListByUser,
			Cache:      e.cache,
		},
		Login: flows.LoginDeps[*User]{
			FindByUsername: e.findUserByUsername,
			PasswordHash:   func(u *User) string { return u.PasswordHash },
			VerifyPassword: e.credentials.Verify,
			IsNotFound:     isNotFound,
			DummyHash:      dummyHash,
		},
	}
}

// Verify authenticates token and requires the owning user to hold at least
// requiredRole. Every rejection is reported as [ErrInvalidToken]; a store failure
// is reported as [ErrPersistence] so callers can tell the two apart.
func (e *Engine) Verify(ctx context.Context, token string, requiredRole Role) (*AuthResult, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	result := flows.RunVerify(ctx, token, func(u *User) bool {
		return u.Role.Satisfies(requiredRole)
	}, e.flows.Verify)
	e.metrics.Observe(MetricVerifyLatency, time.Since(start))

	if result.CacheHit {
		e.metrics.Inc(MetricVerifyCacheHit)
	} else if e.cache != nil && result.Failure != flows.VerifyFailureMalformed && result.Failure != flows.VerifyFailureMissingClaims {
		e.metrics.Inc(MetricVerifyCacheMiss)
	}

	if result.CachePutErr != nil {
		e.log.Warn("cache put failed",
			zap.String("session_id", result.Session.ID),
			zap.Error(result.CachePutErr),
		)
	}

	switch result.Failure {
	case flows.VerifyFailureNone:
		e.metrics.Inc(MetricVerifySuccess)
		e.log.Debug("token verified",
			zap.String("user_id", result.User.ID),
			zap.String("session_id", result.Session.ID),
			zap.Bool("cache_hit", result.CacheHit),
		)
		return &AuthResult{User: result.User, Session: result.Session}, nil
	case flows.VerifyFailureBackend:
		e.metrics.Inc(MetricVerifyFailure)
		e.metrics.Inc(MetricVerifyBackendError)
		e.log.Warn("token verification backend failure", zap.Error(result.Err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, result.Err)
	default:
		e.metrics.Inc(MetricVerifyFailure)
		e.log.Debug("token rejected",
			zap.Stringer("reason", result.Failure),
			zap.Bool("cache_hit", result.CacheHit),
			zap.NamedError("cause", result.Err),
		)
		return nil, ErrInvalidToken
	}
}

// Accept verifies token at [RolePublic] and returns nil instead of an error. Use it
// where authentication is optional.
func (e *Engine) Accept(ctx context.Context, token string) *AuthResult {
	if token == "" {
		return nil
	}
	auth, err := e.Verify(ctx, token, RolePublic)
	if err != nil {
		return nil
	}
	return auth
}

// Close flushes pending audit events. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
	if e.log != nil {
		_ = e.log.Sync()
	}
}

// AuditDropped returns the number of audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) findUser(ctx context.Context, id string) (*User, error) {
	user, err := e.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (e *Engine) findUserByUsername(ctx context.Context, username string) (*User, error) {
	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, store.ErrNotFound
	}
	return user, nil
}

// findSession treats an expired session as missing, whatever the store does with it.
func (e *Engine) findSession(ctx context.Context, id string) (*session.Session, error) {
	sess, err := e.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Expired(e.now()) {
		return nil, store.ErrNotFound
	}
	return sess, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// storeError maps a store error to the exported sentinels.
func storeError(err error) error {
	if isNotFound(err) {
		return ErrObjectNotFound
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
