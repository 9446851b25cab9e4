package cache

import (
	"sync"
	"testing"
	"time"
)

func TestRateLimiterWindowing(t *testing.T) {
	now := time.Now()
	l := NewRateLimiter(10, 24*time.Hour, WithRateClock(func() time.Time { return now }))

	l.UpdateUserMessageCount(1, 3)
	if got := l.GetMessageCount(1); got != 3 {
		t.Fatalf("GetMessageCount = %d, want 3", got)
	}

	now = now.Add(25 * time.Hour)
	if got := l.GetMessageCount(1); got != 0 {
		t.Fatalf("GetMessageCount after window = %d, want 0", got)
	}
}

func TestRateLimiterPartialExpiry(t *testing.T) {
	now := time.Now()
	l := NewRateLimiter(10, 24*time.Hour, WithRateClock(func() time.Time { return now }))

	l.UpdateUserMessageCount(1, 4)
	now = now.Add(20 * time.Hour)
	l.UpdateUserMessageCount(1, 2)
	now = now.Add(5 * time.Hour)
	// first sample is 25h old, second is 5h old
	if got := l.GetMessageCount(1); got != 2 {
		t.Fatalf("GetMessageCount = %d, want 2", got)
	}
}

func TestRateLimiterExceeded(t *testing.T) {
	l := NewRateLimiter(10, 24*time.Hour)

	l.UpdateUserMessageCount(1, 9)
	if l.IsMessageLimitExceeded(1) {
		t.Fatal("limit reported exceeded at 9/10")
	}
	l.UpdateUserMessageCount(1, 1)
	if !l.IsMessageLimitExceeded(1) {
		t.Fatal("limit not reported exceeded at 10/10")
	}
}

func TestRateLimiterZeroLimitDisabled(t *testing.T) {
	l := NewRateLimiter(0, 24*time.Hour)
	l.UpdateUserMessageCount(1, 100)
	if l.IsMessageLimitExceeded(1) {
		t.Fatal("zero limit should disable the ceiling check")
	}
}

func TestRateLimiterIgnoresNonPositiveDelta(t *testing.T) {
	l := NewRateLimiter(10, 24*time.Hour)
	l.UpdateUserMessageCount(1, 0)
	l.UpdateUserMessageCount(1, -5)
	if got := l.GetMessageCount(1); got != 0 {
		t.Fatalf("GetMessageCount = %d, want 0", got)
	}
}

func TestRateLimiterConcurrentSameUser(t *testing.T) {
	l := NewRateLimiter(0, 24*time.Hour)

	const workers = 16
	const perWorker = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				l.UpdateUserMessageCount(7, 1)
			}
		}()
	}
	wg.Wait()

	if got := l.GetMessageCount(7); got != workers*perWorker {
		t.Fatalf("GetMessageCount = %d, want %d (updates lost or doubled)", got, workers*perWorker)
	}
}

func TestRateLimiterIndependentUsers(t *testing.T) {
	l := NewRateLimiter(10, 24*time.Hour)
	l.UpdateUserMessageCount(1, 10)
	if l.IsMessageLimitExceeded(2) {
		t.Fatal("user 2 saturated by user 1 activity")
	}
}
