package cache

import (
	"sync"
	"testing"
	"time"
)

func TestSessionSingleSlot(t *testing.T) {
	c := NewSessionCache(0)
	c.SetLastCommand(1, "create-image", 2, "with-limit")
	c.SetLastCommand(1, "api-key", 2, "set")

	if c.CanGetLastCommand(1, "create-image", 1, false) {
		t.Fatal("overwritten entry still observable")
	}
	if !c.CanGetLastCommand(1, "api-key", 1, false) {
		t.Fatal("latest entry not observable")
	}
	payload, ok := c.GetCommandData(1, false)
	if !ok || payload != "set" {
		t.Fatalf("payload = %q, %v; want %q, true", payload, ok, "set")
	}
}

func TestSessionCountdown(t *testing.T) {
	c := NewSessionCache(0)
	c.SetLastCommand(7, "create-image", 2, "with-limit")

	if !c.CanGetLastCommand(7, "create-image", 2, true) {
		t.Fatal("first consuming check should pass")
	}
	if c.CanGetLastCommand(7, "create-image", 2, true) {
		t.Fatal("second consuming check should fail, budget exhausted")
	}
	// one turn is still left for a lower threshold
	if !c.CanGetLastCommand(7, "create-image", 1, true) {
		t.Fatal("one turn of budget should remain")
	}
	if c.CanGetLastCommand(7, "create-image", 1, true) {
		t.Fatal("entry should be gone after the last turn")
	}
}

func TestSessionPeekDoesNotMutate(t *testing.T) {
	c := NewSessionCache(0)
	c.SetLastCommand(3, "create-image", 2, "")
	for i := 0; i < 10; i++ {
		if !c.CanGetLastCommand(3, "create-image", 2, false) {
			t.Fatalf("peek %d failed", i)
		}
	}
	if _, ok := c.GetCommandData(3, false); !ok {
		t.Fatal("entry vanished after peeks")
	}
}

func TestSessionCancellationDominance(t *testing.T) {
	c := NewSessionCache(0)
	c.SetLastCommand(5, "create-image", 2, "with-limit")
	c.RemoveLastCommand(5)
	if c.CanGetLastCommand(5, "create-image", 1, false) {
		t.Fatal("cancelled entry still reported valid")
	}
	// cancelling again is a no-op
	c.RemoveLastCommand(5)
}

func TestSessionTokenMismatch(t *testing.T) {
	c := NewSessionCache(0)
	c.SetLastCommand(9, "create-image", 2, "")
	if c.CanGetLastCommand(9, "api-key", 1, true) {
		t.Fatal("mismatched token validated")
	}
	// failed check must not consume budget
	if !c.CanGetLastCommand(9, "create-image", 2, false) {
		t.Fatal("budget lost on mismatched check")
	}
}

func TestSessionTTLExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := NewSessionCache(30*time.Minute, WithSessionClock(func() time.Time { return clock() }))

	c.SetLastCommand(11, "create-image", 2, "")
	now = now.Add(31 * time.Minute)
	if c.CanGetLastCommand(11, "create-image", 1, false) {
		t.Fatal("expired entry reported valid")
	}
	if _, ok := c.GetCommandData(11, false); ok {
		t.Fatal("expired payload reported valid")
	}
}

func TestSessionSweep(t *testing.T) {
	now := time.Now()
	c := NewSessionCache(time.Minute, WithSessionClock(func() time.Time { return now }))
	for id := int64(1); id <= 40; id++ {
		c.SetLastCommand(id, "create-image", 2, "")
	}
	now = now.Add(2 * time.Minute)
	if got := c.Sweep(); got != 40 {
		t.Fatalf("Sweep() = %d, want 40", got)
	}
	if got := c.Sweep(); got != 0 {
		t.Fatalf("second Sweep() = %d, want 0", got)
	}
}

func TestSessionConcurrentConsume(t *testing.T) {
	c := NewSessionCache(0)
	c.SetLastCommand(42, "create-image", 1, "")

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			results <- c.CanGetLastCommand(42, "create-image", 1, true)
		}()
	}
	wg.Wait()
	close(results)

	trues := 0
	for r := range results {
		if r {
			trues++
		}
	}
	if trues != 1 {
		t.Fatalf("consumed %d times for a budget of 1", trues)
	}
}

func TestSessionIndependentUsers(t *testing.T) {
	c := NewSessionCache(0)
	c.SetLastCommand(1, "create-image", 2, "a")
	c.SetLastCommand(2, "create-image", 2, "b")
	c.RemoveLastCommand(1)
	payload, ok := c.GetCommandData(2, false)
	if !ok || payload != "b" {
		t.Fatalf("user 2 affected by user 1 removal: %q, %v", payload, ok)
	}
}
