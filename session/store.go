package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goIdentity/store"
	"github.com/redis/go-redis/v9"
)

const deleteSessionScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is a Redis-backed session store. Sessions are written with a TTL matching
// their expiry and indexed per user so they can be listed and revoked together.
//
// Store implements the goIdentity SessionStore contract: missing sessions are reported
// with an error wrapping [store.ErrNotFound], Redis failures with [store.ErrUnavailable].
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client. prefix sets the
// Redis key namespace.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "is"
	}
	return &Store{
		redis:  redis,
		prefix: prefix,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// Save persists sess. The key expires together with the session.
//
//	Performance: 1 MULTI/EXEC (SET + SADD).
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" || sess.UserID == "" {
		return errors.New("session id and user id are required")
	}

	data, err := Encode(sess)
	if err != nil {
		return err
	}

	var ttl time.Duration
	if !sess.ExpiresAt.IsZero() {
		ttl = time.Until(sess.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("session %s already expired", sess.ID)
		}
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, ttl)
		pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return nil
}

// FindByID returns the session with the given id.
//
//	Performance: 1 Redis GET.
func (s *Store) FindByID(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: session %s", store.ErrNotFound, sessionID)
		}
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if sess.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: session %s", store.ErrNotFound, sessionID)
	}

	return sess, nil
}

// Delete removes sess and its index entry. Deleting a missing session is not an error.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) Delete(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	_, err := deleteSessionLua.Run(ctx, s.redis, []string{s.key(sess.ID), s.userKey(sess.UserID)}, sess.ID).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// ListByUser returns the live sessions of userID. Index members whose session key has
// expired are pruned.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	userKey := s.userKey(userID)
	ids, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return []*Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, sid := range ids {
		cmds[i] = pipe.Get(ctx, s.key(sid))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	now := time.Now()
	sessions := make([]*Session, 0, len(ids))
	stale := make([]interface{}, 0)
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				stale = append(stale, ids[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, cmdErr)
		}

		sess, decErr := Decode(data)
		if decErr != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, decErr)
		}
		if sess.Expired(now) {
			continue
		}
		sessions = append(sessions, sess)
	}

	if len(stale) > 0 {
		if err := s.redis.SRem(ctx, userKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
	}

	return sessions, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return time.Since(start), nil
}
