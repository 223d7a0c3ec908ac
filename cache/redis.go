package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goIdentity/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Token keys are derived inside the invalidate script from the index members, so
// the cache must live on a single Redis node (or a cluster hash slot).
const putScript = `
if redis.call("EXISTS", KEYS[3]) == 1 then
	return 0
end
local ttl = tonumber(ARGV[2])
redis.call("SET", KEYS[1], ARGV[1], "PX", ttl)
redis.call("SADD", KEYS[2], ARGV[3])
if redis.call("PTTL", KEYS[2]) < ttl then
	redis.call("PEXPIRE", KEYS[2], ttl)
end
return 1
`

const invalidateScript = `
local members = redis.call("SMEMBERS", KEYS[1])
for _, member in ipairs(members) do
	redis.call("DEL", ARGV[1] .. member)
end
redis.call("DEL", KEYS[1])
redis.call("SET", KEYS[2], "1", "PX", tonumber(ARGV[2]))
return #members
`

var (
	putLua        = redis.NewScript(putScript)
	invalidateLua = redis.NewScript(invalidateScript)
)

// RedisConfig configures a [Redis] cache.
type RedisConfig struct {
	Prefix       string
	TTL          time.Duration
	TombstoneTTL time.Duration
	Logger       *zap.Logger
}

// Redis is a cache shared through Redis. Raw tokens never reach Redis; entries are
// keyed by the SHA-256 of the token.
type Redis struct {
	redis        redis.UniversalClient
	prefix       string
	ttl          time.Duration
	tombstoneTTL time.Duration
	log          *zap.Logger
}

// NewRedis creates a [Redis] cache on the given client.
func NewRedis(client redis.UniversalClient, cfg RedisConfig) *Redis {
	r := &Redis{
		redis:        client,
		prefix:       cfg.Prefix,
		ttl:          cfg.TTL,
		tombstoneTTL: cfg.TombstoneTTL,
		log:          cfg.Logger,
	}
	if r.prefix == "" {
		r.prefix = "ic"
	}
	if r.ttl <= 0 {
		r.ttl = defaultTTL
	}
	if r.tombstoneTTL <= 0 {
		r.tombstoneTTL = defaultTombstoneTTL
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *Redis) tokenPrefix() string { return r.prefix + ":t:" }

func (r *Redis) tokenKey(hash string) string { return r.tokenPrefix() + hash }

func (r *Redis) indexKey(sessionID string) string { return r.prefix + ":x:" + sessionID }

func (r *Redis) tombstoneKey(sessionID string) string { return r.prefix + ":r:" + sessionID }

// Get implements [Cache].
//
//	Performance: 1 Redis GET.
func (r *Redis) Get(ctx context.Context, token string) (*session.Session, bool) {
	data, err := r.redis.Get(ctx, r.tokenKey(hashToken(token))).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("cache get failed", zap.Error(err))
		}
		return nil, false
	}

	sess, err := session.Decode(data)
	if err != nil {
		r.log.Warn("cache entry corrupt", zap.Error(err))
		return nil, false
	}
	if sess.Expired(time.Now()) {
		return nil, false
	}
	return sess, true
}

// Put implements [Cache]. It returns [ErrRevoked] if the session carries a tombstone.
//
//	Performance: 1 Lua EVALSHA.
func (r *Redis) Put(ctx context.Context, token string, sess *session.Session) error {
	if token == "" || sess == nil || sess.ID == "" {
		return errors.New("cache: token and session id are required")
	}

	ttl := entryTTL(r.ttl, sess, time.Now())
	if ttl < time.Millisecond {
		return nil
	}

	data, err := session.Encode(sess)
	if err != nil {
		return err
	}

	hash := hashToken(token)
	stored, err := putLua.Run(ctx, r.redis,
		[]string{r.tokenKey(hash), r.indexKey(sess.ID), r.tombstoneKey(sess.ID)},
		data, ttl.Milliseconds(), hash,
	).Int()
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	if stored == 0 {
		return ErrRevoked
	}
	return nil
}

// InvalidateBySession implements [Cache].
//
//	Performance: 1 Lua EVALSHA.
func (r *Redis) InvalidateBySession(ctx context.Context, sessionID string) error {
	_, err := invalidateLua.Run(ctx, r.redis,
		[]string{r.indexKey(sessionID), r.tombstoneKey(sessionID)},
		r.tokenPrefix(), r.tombstoneTTL.Milliseconds(),
	).Result()
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
