package cache

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goIdentity/session"
)

// MemoryConfig configures a [Memory] cache.
type MemoryConfig struct {
	// TTL bounds how long an entry lives. Entries never outlive their session.
	TTL time.Duration
	// MaxEntries bounds the number of cached tokens. Least recently used entries are
	// evicted first. Zero means unbounded.
	MaxEntries int
	// TombstoneTTL is how long a revoked session id refuses new entries.
	TombstoneTTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type memoryEntry struct {
	token     string
	sess      *session.Session
	expiresAt time.Time
	element   *list.Element
}

// Memory is an in-process LRU cache with TTL.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]*memoryEntry
	bySession  map[string]map[string]struct{}
	tombstones map[string]time.Time
	lru        *list.List

	ttl          time.Duration
	maxEntries   int
	tombstoneTTL time.Duration
	now          func() time.Time
}

// NewMemory creates an empty [Memory] cache.
func NewMemory(cfg MemoryConfig) *Memory {
	m := &Memory{
		entries:      make(map[string]*memoryEntry),
		bySession:    make(map[string]map[string]struct{}),
		tombstones:   make(map[string]time.Time),
		lru:          list.New(),
		ttl:          cfg.TTL,
		maxEntries:   cfg.MaxEntries,
		tombstoneTTL: cfg.TombstoneTTL,
		now:          cfg.Now,
	}
	if m.ttl <= 0 {
		m.ttl = defaultTTL
	}
	if m.tombstoneTTL <= 0 {
		m.tombstoneTTL = defaultTombstoneTTL
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Get implements [Cache]. The returned session is a copy.
func (m *Memory) Get(_ context.Context, token string) (*session.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[token]
	if !ok {
		return nil, false
	}
	if !m.now().Before(entry.expiresAt) {
		m.removeLocked(entry)
		return nil, false
	}

	m.lru.MoveToFront(entry.element)
	return entry.sess.Clone(), true
}

// Put implements [Cache]. It returns [ErrRevoked] if sess was invalidated within the
// tombstone window.
func (m *Memory) Put(_ context.Context, token string, sess *session.Session) error {
	if token == "" || sess == nil || sess.ID == "" {
		return errors.New("cache: token and session id are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if until, ok := m.tombstones[sess.ID]; ok {
		if now.Before(until) {
			return ErrRevoked
		}
		delete(m.tombstones, sess.ID)
	}

	ttl := entryTTL(m.ttl, sess, now)
	if ttl <= 0 {
		return nil
	}

	if existing, ok := m.entries[token]; ok {
		m.removeLocked(existing)
	}
	if m.maxEntries > 0 {
		for m.lru.Len() >= m.maxEntries {
			m.evictLocked()
		}
	}

	entry := &memoryEntry{
		token:     token,
		sess:      sess.Clone(),
		expiresAt: now.Add(ttl),
	}
	entry.element = m.lru.PushFront(entry)
	m.entries[token] = entry

	tokens := m.bySession[sess.ID]
	if tokens == nil {
		tokens = make(map[string]struct{})
		m.bySession[sess.ID] = tokens
	}
	tokens[token] = struct{}{}

	return nil
}

// InvalidateBySession implements [Cache].
func (m *Memory) InvalidateBySession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for token := range m.bySession[sessionID] {
		if entry, ok := m.entries[token]; ok {
			m.removeLocked(entry)
		}
	}
	delete(m.bySession, sessionID)
	m.tombstones[sessionID] = now.Add(m.tombstoneTTL)
	m.pruneTombstonesLocked(now)

	return nil
}

// Len returns the number of cached tokens, including expired entries not yet collected.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lru.Len()
}

// CleanupExpired drops expired entries and tombstones and returns the number of entries removed.
func (m *Memory) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for _, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			m.removeLocked(entry)
			removed++
		}
	}
	m.pruneTombstonesLocked(now)
	return removed
}

// must be called with the lock held
func (m *Memory) removeLocked(entry *memoryEntry) {
	m.lru.Remove(entry.element)
	delete(m.entries, entry.token)
	if tokens, ok := m.bySession[entry.sess.ID]; ok {
		delete(tokens, entry.token)
		if len(tokens) == 0 {
			delete(m.bySession, entry.sess.ID)
		}
	}
}

func (m *Memory) evictLocked() {
	back := m.lru.Back()
	if back == nil {
		return
	}
	m.removeLocked(back.Value.(*memoryEntry))
}

func (m *Memory) pruneTombstonesLocked(now time.Time) {
	for sid, until := range m.tombstones {
		if !now.Before(until) {
			delete(m.tombstones, sid)
		}
	}
}
