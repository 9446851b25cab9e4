package cache

import (
	"sync"
	"time"
)

const rateShardCount = 32

type rateSample struct {
	at    time.Time
	delta int
}

type rateShard struct {
	mu      sync.Mutex
	samples map[int64][]rateSample
}

// RateLimiter counts qualifying actions per user over a trailing window.
// Samples older than the window are excluded from every read and pruned in
// place, so an idle user's state shrinks back to nothing.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time
	shards [rateShardCount]*rateShard
}

// RateOption customises a RateLimiter.
type RateOption func(*RateLimiter)

// WithRateClock injects a clock, used by tests to advance the window.
func WithRateClock(now func() time.Time) RateOption {
	return func(l *RateLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewRateLimiter builds a limiter with the given in-window ceiling and
// trailing window length.
func NewRateLimiter(limit int, window time.Duration, opts ...RateOption) *RateLimiter {
	l := &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for i := range l.shards {
		l.shards[i] = &rateShard{samples: make(map[int64][]rateSample)}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RateLimiter) shard(userID int64) *rateShard {
	return l.shards[uint64(userID)%rateShardCount]
}

// prune drops out-of-window samples for the user and returns the remaining
// in-window sum. Caller holds the shard lock.
func (l *RateLimiter) prune(s *rateShard, userID int64) int {
	cutoff := l.now().Add(-l.window)
	samples := s.samples[userID]
	kept := samples[:0]
	sum := 0
	for _, sm := range samples {
		if sm.at.After(cutoff) {
			kept = append(kept, sm)
			sum += sm.delta
		}
	}
	if len(kept) == 0 {
		delete(s.samples, userID)
	} else {
		s.samples[userID] = kept
	}
	return sum
}

// UpdateUserMessageCount records delta additional qualifying actions for the
// user, timestamped now. A single generation call may count as several
// images, hence the arbitrary positive delta.
func (l *RateLimiter) UpdateUserMessageCount(userID int64, delta int) {
	if delta <= 0 {
		return
	}
	s := l.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	l.prune(s, userID)
	s.samples[userID] = append(s.samples[userID], rateSample{at: l.now(), delta: delta})
}

// GetMessageCount returns the sum of deltas recorded within the trailing
// window, excluding anything older.
func (l *RateLimiter) GetMessageCount(userID int64) int {
	s := l.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return l.prune(s, userID)
}

// IsMessageLimitExceeded reports whether the user's in-window count has
// already reached the configured ceiling, before accounting for the action
// about to be attempted.
func (l *RateLimiter) IsMessageLimitExceeded(userID int64) bool {
	if l.limit <= 0 {
		return false
	}
	return l.GetMessageCount(userID) >= l.limit
}

// Limit returns the configured in-window ceiling.
func (l *RateLimiter) Limit() int {
	return l.limit
}

// Window returns the trailing window length.
func (l *RateLimiter) Window() time.Duration {
	return l.window
}
