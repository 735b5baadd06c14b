package pevent

import (
	"context"
	"runtime"
	"time"

	g "github.com/anacrolix/generics"
	"github.com/anacrolix/log"
	anasync "github.com/anacrolix/sync"
	"go.uber.org/atomic"

	"github.com/dannyzb/pevent/internal/metrics"
)

// coordinator is the per-call record shared by WaitForMultipleEvents across
// every event it registers on, grounded on pevents.cpp's neosmart_wfmo_t_:
// a mutex, a condition variable, a union of FiredEvent/EventsLeft, and a
// reference count that starts at 1+len(events) (one ref per registration
// plus one held by the waiting goroutine itself) and is decremented by
// whichever side — an Event's dispatch path, or the registration/wait loop
// itself — finishes with it last; the last decrementer frees it.
type coordinator struct {
	mu   anasync.Mutex
	cond *cond

	waitAll bool

	// eventsLeft counts down to zero for a wait-all coordinator.
	eventsLeft int
	// firedEvent holds the index of the event that satisfied a wait-any
	// coordinator.
	firedEvent int

	stillWaiting atomic.Bool
	refCount     atomic.Int32
}

func newCoordinator(n int, waitAll bool) *coordinator {
	c := &coordinator{
		waitAll:    waitAll,
		eventsLeft: n,
		firedEvent: -1,
	}
	c.cond = newCond(&c.mu)
	c.stillWaiting.Store(true)
	c.refCount.Store(int32(1 + n))
	return c
}

// release drops one reference. Nothing further happens when it reaches
// zero beyond letting the coordinator become garbage; unlike pevents.cpp
// there's no separate heap-allocated struct to free explicitly in Go.
func (c *coordinator) release() {
	if c.refCount.Dec() == 0 {
		logger.Levelf(log.Debug, "pevent: multi-wait coordinator torn down")
	}
}

// WaitForMultipleEvents blocks until either one (waitAll=false) or every
// (waitAll=true) event in events is signaled, or ctx is done. It returns
// the index of the event that satisfied a wait-any call, or 0 (ignore it)
// for wait-all. events must not contain duplicates or nils (spec.md §4.3,
// §7 "Programmer-error").
//
// WaitForMultipleEvents is the package-level multi-event wait, mirroring
// the original's free-function WaitForMultipleObjects rather than a method
// on a single Event (spec.md §4.3's Multi-Wait Coordinator is inherently
// about N events, not owned by any one of them).
func WaitForMultipleEvents(ctx context.Context, events []*Event, waitAll bool) (int, error) {
	massert(len(events) > 0, "WaitForMultipleEvents called with no events")

	ctx, span := startMultiWaitSpan(ctx, len(events), waitAll)
	defer span.End()

	if deadlinePassed(ctx) {
		if idx, ok := pollOnce(events, waitAll); ok {
			return idx, nil
		}
		metrics.WaitTimeouts.Inc()
		return -1, ErrTimeout
	}

	metrics.MultiWaitsLive.Inc()
	defer metrics.MultiWaitsLive.Dec()

	c := newCoordinator(len(events), waitAll)
	skipped := 0

	for i, ev := range events {
		// Wait-any can return the instant it sees a signaled manual-reset
		// event, without taking that event's lock: nothing is registered
		// on it.
		if !waitAll && !ev.autoReset && ev.state.Load() {
			c.mu.Lock()
			c.firedEvent = i
			c.stillWaiting.Store(false)
			c.mu.Unlock()
			// registrations already made (j < i) will self-clean via
			// removeExpired the next time their event is touched; the refs
			// of events i..N-1, never registered, are dropped here.
			c.refCount.Sub(int32(len(events) - i))
			c.release()
			return i, nil
		}

		ev.mu.Lock()
		ev.registry.removeExpired()

		signalled := ev.state.Load()
		if signalled {
			if waitAll {
				// claim, don't consume: auto-reset events still need the
				// atomic-claim cascade below to actually drain; manual-reset
				// events are simply sticky-true and need no drain, but both
				// kinds keep a live registration so a later Reset on this
				// event can give the claim back via undoWaitAllClaims.
				ev.registry.pushBack(&waitRegistration{coordinator: c, waitIndex: i, signalledForThisWait: true})
				skipped++
				logger.Levelf(log.Debug, "pevent: wait-all registered claim on already-signaled event index %d", i)
			} else {
				// Direct consume: a plain wait-any seeing this event
				// already signaled must drain it exactly like Wait/pollOnce
				// would, or the signal survives for a second, spurious
				// consumer.
				if ev.autoReset {
					ev.state.Store(false)
					ev.undoWaitAllClaims()
					metrics.AutoResetConsumed.Inc()
				}
				ev.mu.Unlock()
				c.mu.Lock()
				c.firedEvent = i
				c.stillWaiting.Store(false)
				c.mu.Unlock()
				c.refCount.Sub(int32(len(events) - i))
				c.release()
				return i, nil
			}
			ev.mu.Unlock()
			continue
		}

		ev.registry.pushBack(&waitRegistration{coordinator: c, waitIndex: i})
		logger.Levelf(log.Debug, "pevent: registered wait on event index %d", i)
		ev.mu.Unlock()
	}

	if waitAll {
		c.mu.Lock()
		c.eventsLeft -= skipped
		massert(c.eventsLeft >= 0, "wait-all eventsLeft underflow during registration")
		done := c.eventsLeft == 0
		c.mu.Unlock()
		if done {
			if idx, ok := tryClaimAll(events); ok {
				c.stillWaiting.Store(false)
				c.release()
				return idx, nil
			}
		}
	}

	defer c.release()

	for {
		c.mu.Lock()
		if !c.stillWaiting.Load() {
			idx := c.firedEvent
			c.mu.Unlock()
			if waitAll {
				return 0, nil
			}
			return idx, nil
		}
		if waitAll && c.eventsLeft == 0 {
			c.mu.Unlock()
			if idx, ok := tryClaimAll(events); ok {
				c.stillWaiting.Store(false)
				return idx, nil
			}
			// Claim cascade lost to contention or found an event no longer
			// signaled. eventsLeft is not recomputed here: unless a Reset or
			// drain has given claims back, it is still 0 on the next
			// iteration and the claim is retried without blocking on
			// c.cond, until it succeeds or ctx is done.
			if deadlinePassed(ctx) {
				c.mu.Lock()
				c.stillWaiting.Store(false)
				c.mu.Unlock()
				metrics.WaitTimeouts.Inc()
				return -1, ErrTimeout
			}
			continue
		}
		if deadlinePassed(ctx) {
			c.stillWaiting.Store(false)
			c.mu.Unlock()
			metrics.WaitTimeouts.Inc()
			return -1, ErrTimeout
		}
		_ = c.cond.wait(ctx)
		c.mu.Unlock()
	}
}

// WaitForMultipleEventsTimeout is WaitForMultipleEvents with a
// time.Duration; a negative duration waits forever.
func WaitForMultipleEventsTimeout(events []*Event, waitAll bool, d time.Duration) (int, error) {
	if d < 0 {
		return WaitForMultipleEvents(context.Background(), events, waitAll)
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return WaitForMultipleEvents(ctx, events, waitAll)
}

// pollOnce is the already-expired-deadline fast path: a single pass over
// events with no registration, checking whether the wait is already
// satisfiable. A satisfied poll behaves like any other successful wait and
// drains the auto-reset signals it consumes: wait-any clears the first
// signaled auto-reset event under its lock, and wait-all consumes through
// tryClaimAll.
func pollOnce(events []*Event, waitAll bool) (int, bool) {
	if !waitAll {
		for i, ev := range events {
			if ev.state.Load() {
				if ev.autoReset {
					ev.mu.Lock()
					if ev.state.Load() {
						ev.state.Store(false)
						ev.undoWaitAllClaims()
						ev.mu.Unlock()
						return i, true
					}
					ev.mu.Unlock()
					continue
				}
				return i, true
			}
		}
		return -1, false
	}

	for _, ev := range events {
		if !ev.state.Load() {
			return -1, false
		}
	}
	if idx, ok := tryClaimAll(events); ok {
		return idx, true
	}
	return -1, false
}

// tryClaimAll is the linearization point for wait-all completion on a set
// of events that all currently appear signaled: try-lock every event's
// mutex in array order, bail out and retry (after unlocking everything
// already taken) on the first failure to avoid lock-ordering deadlock with
// a concurrent SetEvent/Reset on a different subset of the same events,
// then re-verify every state is still true under all locks held at once,
// and only then atomically consume every auto-reset event in the set. Any
// event found false under lock means another waiter or a Reset beat this
// attempt to it; every lock already taken is released, the coordinator's
// pending claims are left untouched (its eventsLeft stays at 0; the next
// SetEvent/dispatch path will notice eventsLeft dropping below zero is
// impossible because claims are idempotent per registration), and the
// caller decides whether to try again. This is the explicit redesign beyond the
// original pevents.cpp's WFMO, which just decrements EventsLeft from
// inside SetEvent with no separate atomic multi-lock step (spec.md §4.3,
// §9, §11).
func tryClaimAll(events []*Event) (int, bool) {
	const maxAttempts = 64
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.ClaimCascadeRetries.Inc()
			runtime.Gosched()
		}

		var locked []*Event
		g.MakeSliceWithCap(&locked, len(events))
		ok := true
		for _, ev := range events {
			if ev.mu.TryLock() {
				locked = append(locked, ev)
				continue
			}
			ok = false
			break
		}
		if !ok {
			for _, ev := range locked {
				ev.mu.Unlock()
			}
			continue
		}

		allSignalled := true
		for _, ev := range events {
			if !ev.state.Load() {
				allSignalled = false
				break
			}
		}
		if !allSignalled {
			for _, ev := range locked {
				ev.mu.Unlock()
			}
			continue
		}

		for _, ev := range events {
			if ev.autoReset {
				ev.state.Store(false)
				// This coordinator consumed the event out from under any
				// other coordinator that had only claimed (not consumed) it
				// for its own wait-all; give that claim back so the other
				// coordinator re-waits instead of spinning on a stale
				// eventsLeft==0.
				ev.undoWaitAllClaims()
				metrics.AutoResetConsumed.Inc()
			}
		}
		for _, ev := range locked {
			ev.mu.Unlock()
		}
		return 0, true
	}
	return -1, false
}
