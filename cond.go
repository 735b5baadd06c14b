package pevent

import (
	"context"

	anasync "github.com/anacrolix/sync"
)

// cond is a condition variable substitute built on channels instead of
// sync.Cond, so a wait can be bound to a context deadline without a spare
// timer goroutine per call, and so signal/broadcast can (like
// pthread_cond_signal in the original pevents.cpp) be called just after
// releasing the domain mutex L rather than while still holding it.
//
// Grounded on the compatcond.go/event.go of the torrent code base this
// package was adapted from, which implement a channel-based sync.Cond
// substitute to avoid deadlocking with custom Locker implementations; cond
// keeps their internal-mutex-guards-the-waiter-list shape but adds a
// single-waiter signal (neither of those substitutes has one) and a
// context-bound wait.
type cond struct {
	L anasync.Locker

	mu      anasync.Mutex // guards waiters only, independent of L
	waiters []chan struct{}
}

func newCond(l anasync.Locker) *cond {
	if l == nil {
		panic("nil Locker passed to newCond")
	}
	return &cond{L: l}
}

// wait unlocks L, blocks until signalled/broadcast or ctx is done, then
// re-locks L before returning. Returns ctx.Err() on deadline/cancellation,
// nil otherwise. A non-nil return is NOT proof the wait timed out: signal
// may fire the instant ctx expires, racing the select below. Callers must
// always re-check their predicate under L after wait returns, regardless
// of the returned error, and trust ctx.Err() only if the predicate still
// doesn't hold — exactly as a spurious sync.Cond wakeup is never itself
// treated as success.
func (c *cond) wait(ctx context.Context) error {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()

	c.L.Unlock()
	select {
	case <-ch:
		c.L.Lock()
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		c.removeWaiter(ch)
		c.mu.Unlock()
		c.L.Lock()
		return ctx.Err()
	}
}

// removeWaiter drops ch from waiters if it's still there. If it's already
// been popped by signal/broadcast (and thus already fired or about to),
// draining it non-blockingly here prevents a stray wakeup from leaking to
// whatever code reuses this goroutine next; it does not affect correctness
// either way since ch is discarded after wait returns.
func (c *cond) removeWaiter(ch chan struct{}) {
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
	select {
	case <-ch:
	default:
	}
}

// signal wakes at most one waiter, oldest first (roughly FIFO, matching the
// front-of-registry fairness spec.md describes for auto-reset wait-any).
// Safe to call without L held, mirroring pthread_cond_signal's use in the
// original after pthread_mutex_unlock.
func (c *cond) signal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.waiters) == 0 {
		return
	}
	ch := c.waiters[0]
	c.waiters = c.waiters[1:]
	ch <- struct{}{}
}

// broadcast wakes every current waiter. Safe to call without L held.
func (c *cond) broadcast() {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()
	for _, ch := range waiters {
		ch <- struct{}{}
	}
}
