package commands

import (
	"sync"
	"time"
)

// latestThrottle delivers pushed values to fn at most once per interval.
// A value pushed inside the window replaces any earlier pending one and is
// delivered when the window closes. Calls to fn never overlap.
type latestThrottle[T any] struct {
	interval time.Duration
	fn       func(T)

	mu         sync.Mutex
	last       time.Time
	pending    T
	hasPending bool
	timer      *time.Timer
	stopped    bool

	callMu  sync.Mutex
	running sync.WaitGroup
}

func newLatestThrottle[T any](interval time.Duration, fn func(T)) *latestThrottle[T] {
	return &latestThrottle[T]{interval: interval, fn: fn}
}

// Push offers the latest value.
func (t *latestThrottle[T]) Push(value T) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	now := time.Now()
	remaining := t.interval - now.Sub(t.last)
	if remaining <= 0 {
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
		t.hasPending = false
		t.last = now
		t.running.Add(1)
		t.mu.Unlock()
		t.call(value)
		return
	}
	t.pending, t.hasPending = value, true
	if t.timer == nil {
		t.timer = time.AfterFunc(remaining, t.flush)
	}
	t.mu.Unlock()
}

func (t *latestThrottle[T]) flush() {
	t.mu.Lock()
	t.timer = nil
	if t.stopped || !t.hasPending {
		t.mu.Unlock()
		return
	}
	value := t.pending
	t.hasPending = false
	t.last = time.Now()
	t.running.Add(1)
	t.mu.Unlock()
	t.call(value)
}

func (t *latestThrottle[T]) call(value T) {
	defer t.running.Done()
	t.callMu.Lock()
	defer t.callMu.Unlock()
	t.fn(value)
}

// Stop drops any pending value and waits for a running call to return.
func (t *latestThrottle[T]) Stop() {
	t.mu.Lock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.hasPending = false
	t.mu.Unlock()
	t.running.Wait()
}
