// Package cache holds the in-memory per-user state that gives the router
// memory across turns: the pending-command session store and the
// sliding-window rate limiter. Both are process-local and shard their
// locking by user id so unrelated users never contend.
package cache

import (
	"sync"
	"time"
)

const sessionShardCount = 32

// SessionEntry is the single pending-command slot kept per user.
type SessionEntry struct {
	Token     string
	TurnsLeft int
	Payload   string
	CreatedAt time.Time
}

type sessionShard struct {
	mu      sync.Mutex
	entries map[int64]*SessionEntry
}

// SessionCache tracks which command a user is mid-way through and for how
// many more inbound turns the continuation stays valid. At most one live
// entry exists per user; setting a new one overwrites the old one.
type SessionCache struct {
	ttl    time.Duration
	now    func() time.Time
	shards [sessionShardCount]*sessionShard
}

// SessionOption customises a SessionCache.
type SessionOption func(*SessionCache)

// WithSessionClock injects a clock, used by tests to simulate TTL expiry.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(c *SessionCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewSessionCache builds the store. ttl bounds the absolute lifetime of an
// entry regardless of remaining turns; ttl <= 0 disables the time fallback.
func NewSessionCache(ttl time.Duration, opts ...SessionOption) *SessionCache {
	c := &SessionCache{
		ttl: ttl,
		now: time.Now,
	}
	for i := range c.shards {
		c.shards[i] = &sessionShard{entries: make(map[int64]*SessionEntry)}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SessionCache) shard(userID int64) *sessionShard {
	return c.shards[uint64(userID)%sessionShardCount]
}

// expired reports whether the entry is no longer usable. Caller holds the
// shard lock.
func (c *SessionCache) expired(e *SessionEntry) bool {
	if e.TurnsLeft <= 0 {
		return true
	}
	if c.ttl > 0 && c.now().Sub(e.CreatedAt) > c.ttl {
		return true
	}
	return false
}

// SetLastCommand creates or unconditionally replaces the pending command for
// the user. Last writer wins; there is no merge with a prior entry.
func (c *SessionCache) SetLastCommand(userID int64, token string, turns int, payload string) {
	if turns <= 0 {
		return
	}
	s := c.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = &SessionEntry{
		Token:     token,
		TurnsLeft: turns,
		Payload:   payload,
		CreatedAt: c.now(),
	}
}

// CanGetLastCommand reports whether the user has a live entry for token with
// at least minTurns of budget remaining. With consume set, a matching entry
// is decremented by exactly one; the entry is removed once the budget hits
// zero. A failed check never mutates state, so the call is safe to use both
// as a gate (peek) and as the per-turn charge (consume).
func (c *SessionCache) CanGetLastCommand(userID int64, token string, minTurns int, consume bool) bool {
	if minTurns < 1 {
		minTurns = 1
	}
	s := c.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return false
	}
	if c.expired(e) {
		delete(s.entries, userID)
		return false
	}
	if e.Token != token || e.TurnsLeft < minTurns {
		return false
	}
	if consume {
		e.TurnsLeft--
		if e.TurnsLeft <= 0 {
			delete(s.entries, userID)
		}
	}
	return true
}

// GetCommandData returns the payload stored with the user's current entry and
// whether the entry is live. It does not validate the token. With consume set
// the entry is removed, ending the continuation.
func (c *SessionCache) GetCommandData(userID int64, consume bool) (string, bool) {
	s := c.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return "", false
	}
	if c.expired(e) {
		delete(s.entries, userID)
		return "", false
	}
	if consume {
		delete(s.entries, userID)
	}
	return e.Payload, true
}

// PendingToken returns the token of the user's live entry, if any, without
// mutating it. The dispatcher uses it to route continuations.
func (c *SessionCache) PendingToken(userID int64) (string, bool) {
	s := c.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return "", false
	}
	if c.expired(e) {
		delete(s.entries, userID)
		return "", false
	}
	return e.Token, true
}

// RemoveLastCommand deletes the user's entry unconditionally. Removing an
// absent entry is a no-op so callers may cancel defensively.
func (c *SessionCache) RemoveLastCommand(userID int64) {
	s := c.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

// Sweep drops expired entries across all shards and returns how many were
// removed. Expiry is also enforced lazily on access, so sweeping is optional.
func (c *SessionCache) Sweep() int {
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for id, e := range s.entries {
			if c.expired(e) {
				delete(s.entries, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}
