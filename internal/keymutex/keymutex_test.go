package keymutex

import (
	"sync"
	"testing"
	"time"
)

// TestMutualExclusionSameKey verifies that two goroutines holding the same
// key never run their critical sections concurrently.
func TestMutualExclusionSameKey(t *testing.T) {
	km := New()

	var inside int
	var maxInside int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("agent-1")
			defer km.Unlock("agent-1")

			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside)
	}
}

// TestDifferentKeysDoNotBlock verifies that a held lock on one key does not
// block acquisition on another key.
func TestDifferentKeysDoNotBlock(t *testing.T) {
	km := New()
	km.Lock("agent-1")
	defer km.Unlock("agent-1")

	done := make(chan struct{})
	go func() {
		km.Lock("agent-2")
		km.Unlock("agent-2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

// TestLockReuse verifies the same mutex instance backs repeated use of a key.
func TestLockReuse(t *testing.T) {
	km := New()
	for i := 0; i < 3; i++ {
		km.Lock("a")
		km.Unlock("a")
	}
	if len(km.locks) != 1 {
		t.Errorf("lock table has %d entries, want 1", len(km.locks))
	}
}
