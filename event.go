// Package pevent implements a portable manual/auto-reset event, modeled on
// the semantics of Win32's CreateEvent/SetEvent/ResetEvent/
// WaitForSingleObject/WaitForMultipleObjects, on top of a mutex and a
// channel-based condition-variable substitute (cond). See SPEC_FULL.md for
// the full component design; this file implements Event and its
// single-waiter path (spec.md §4.1/§4.2).
package pevent

import (
	"context"
	"time"

	"github.com/anacrolix/log"
	anasync "github.com/anacrolix/sync"
	"go.uber.org/atomic"

	"github.com/dannyzb/pevent/internal/metrics"
)

// Event is a boolean signaling object with either auto-reset (a successful
// wait consumes the signal) or manual-reset (sticky until Reset) semantics.
// The zero value is not usable; construct with New.
type Event struct {
	autoReset bool
	state     atomic.Bool

	mu   anasync.Mutex
	cond *cond

	registry *registry

	destroyed bool
}

// New creates an Event. If manualReset is false the event auto-resets: a
// successful Wait (or a wait-any/wait-all completion) consumes the signal.
// initialState sets the event's starting signaled state.
func New(manualReset, initialState bool) *Event {
	e := &Event{
		autoReset: !manualReset,
		registry:  newRegistry(),
	}
	e.cond = newCond(&e.mu)
	// relaxed: a fresh Event is guaranteed to have no waiters yet.
	e.state.Store(initialState)
	metrics.EventsCreated.Inc()
	metrics.EventsLive.Inc()
	return e
}

// Destroy releases the Event's resources. The caller must guarantee no
// other goroutine will call Wait/Set/Reset/Pulse on it again; this is a
// runtime obligation of the caller, not something the type system can
// enforce (spec.md §3, §7 "Programmer-error").
func (e *Event) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.removeExpired()
	massert(e.registry.len() == 0, "Destroy called with live waiters registered")
	e.destroyed = true
	logger.Levelf(log.Debug, "pevent: event destroyed")
	metrics.EventsLive.Dec()
}

// Set signals the event. On a manual-reset event every current waiter
// unblocks and the event stays signaled until Reset. On an auto-reset
// event either exactly one registered wait-any coordinator or one direct
// Wait call consumes the signal; if none is waiting, the event remains
// signaled for the next comer (spec.md §4.2).
func (e *Event) Set() error {
	metrics.SetCalls.Inc()
	e.mu.Lock()

	e.state.Store(true)

	if e.autoReset {
		consumed := e.dispatchAutoReset()
		if consumed {
			e.state.Store(false)
		}
		e.mu.Unlock()
		if !consumed {
			e.cond.signal()
		}
		return nil
	}

	e.dispatchManualReset()
	e.mu.Unlock()
	e.cond.broadcast()
	return nil
}

// dispatchAutoReset walks the registry front-to-back looking for a live
// coordinator to hand the single signal to. wait-all coordinators only
// *claim* the event (spec.md's claim-vs-consume distinction); wait-any
// coordinators (or a plain WaitForEvent) *consume* it, which stops the
// walk. Must be called with e.mu held; returns true iff the signal was
// handed to a wait-any coordinator, meaning e.state must not stay true.
func (e *Event) dispatchAutoReset() (consumed bool) {
	e.registry.walkAndRemove(func(w *waitRegistration) (remove, stop bool) {
		c := w.coordinator
		if !c.stillWaiting.Load() {
			c.release()
			return true, false
		}

		c.mu.Lock()
		if !c.stillWaiting.Load() {
			c.mu.Unlock()
			c.release()
			return true, false
		}
		if w.signalledForThisWait {
			c.mu.Unlock()
			return false, false
		}
		w.signalledForThisWait = true

		if c.waitAll {
			c.eventsLeft--
			massert(c.eventsLeft >= 0, "wait-all eventsLeft underflow")
			left := c.eventsLeft
			done := left == 0
			c.mu.Unlock()
			logger.Levelf(log.Debug, "pevent: wait-all claim on auto-reset event, %d events left", left)
			if done {
				c.cond.broadcast()
			}
			return false, false
		}

		c.firedEvent = w.waitIndex
		c.stillWaiting.Store(false)
		c.mu.Unlock()
		logger.Levelf(log.Debug, "pevent: wait-any consumed auto-reset event index %d", w.waitIndex)
		c.cond.signal()
		c.release()
		consumed = true
		return true, true
	})
	return consumed
}

// dispatchManualReset notifies every registered coordinator that this
// event is signaled, without consuming anything (manual-reset events stay
// signaled). A wait-all registration is kept live rather than removed: a
// manual-reset event can later be Reset while the coordinator is still
// waiting on other events, and that path needs the registration to still
// be here to give the claim back (undoWaitAllClaims). Must be called with
// e.mu held.
func (e *Event) dispatchManualReset() {
	e.registry.walkAndRemove(func(w *waitRegistration) (remove, stop bool) {
		c := w.coordinator
		c.mu.Lock()
		if !c.stillWaiting.Load() {
			c.mu.Unlock()
			c.release()
			return true, false
		}

		if c.waitAll {
			if !w.signalledForThisWait {
				w.signalledForThisWait = true
				c.eventsLeft--
				massert(c.eventsLeft >= 0, "wait-all eventsLeft underflow")
			}
			c.mu.Unlock()
			c.cond.broadcast()
			return false, false
		}

		c.firedEvent = w.waitIndex
		c.stillWaiting.Store(false)
		c.mu.Unlock()
		c.cond.broadcast()
		c.release()
		return true, false
	})
}

// Reset clears the event's signaled state. For any wait-all coordinator
// that had claimed (but not yet consumed) this event, the claim is undone:
// its signalledForThisWait flag clears and its eventsLeft count goes back
// up, since the event is no longer available to satisfy that wait
// (spec.md §4.1, §9's "claims are reversible"). Racing this against an
// in-progress wait-all's atomic-claim step is explicitly undefined
// ordering per spec.md §9's Open Questions.
func (e *Event) Reset() error {
	metrics.ResetCalls.Inc()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Store(false)
	e.undoWaitAllClaims()
	return nil
}

// undoWaitAllClaims reverses every outstanding wait-all claim on this
// event. Must be called with e.mu held.
func (e *Event) undoWaitAllClaims() {
	e.registry.walkAndRemove(func(w *waitRegistration) (remove, stop bool) {
		if !w.signalledForThisWait {
			return false, false
		}
		c := w.coordinator
		if !c.stillWaiting.Load() {
			c.release()
			return true, false
		}
		c.mu.Lock()
		if c.stillWaiting.Load() {
			w.signalledForThisWait = false
			c.eventsLeft++
			c.mu.Unlock()
			logger.Levelf(log.Debug, "pevent: undid wait-all claim on event index %d", w.waitIndex)
			return false, false
		}
		c.mu.Unlock()
		return false, false
	})
}

// Pulse is the sequential composition of Set followed by Reset (spec.md
// §6): it wakes anyone currently waiting without leaving the event
// signaled for a later comer.
func (e *Event) Pulse() error {
	metrics.PulseCalls.Inc()
	if err := e.Set(); err != nil {
		return err
	}
	return e.Reset()
}

// Wait blocks until the event is signaled or ctx is done, whichever comes
// first. A ctx with no deadline (context.Background()) waits forever. It
// returns ErrTimeout if ctx expires before the event is observed signaled;
// spec.md §7 only distinguishes success from timeout for callers.
func (e *Event) Wait(ctx context.Context) error {
	// Zero-timeout / already-expired fast path: a relaxed read is
	// acceptable here because we never act on it without a synchronizing
	// check once we decide to actually take the lock (spec.md §4.1 step 1).
	if deadlinePassed(ctx) && !e.state.Load() {
		return ErrTimeout
	}
	// Manual-reset fast path: a single atomic load (sequentially
	// consistent in Go) avoids the lock entirely when the event is already
	// signaled (spec.md §4.1 step 2).
	if !e.autoReset && e.state.Load() {
		return nil
	}

	e.mu.Lock()
	err := e.unlockedWait(ctx)
	e.mu.Unlock()
	return err
}

// WaitTimeout is Wait with a time.Duration instead of a context.Context.
// A negative duration means wait forever (spec.md §6's WAIT_INFINITE
// sentinel, reimagined as idiomatic Go — see SPEC_FULL.md §11).
func (e *Event) WaitTimeout(d time.Duration) error {
	if d < 0 {
		return e.Wait(context.Background())
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return e.Wait(ctx)
}

// unlockedWait runs the core wait loop with e.mu already held. On success,
// if the event is auto-reset, it drains the signal (flips state to false)
// and undoes any wait-all claims that were resting on it, exactly as the
// direct-consume branch of SetEvent's inner routine would (spec.md §4.1's
// "inner wait routine").
func (e *Event) unlockedWait(ctx context.Context) error {
	for !e.state.Load() {
		if deadlinePassed(ctx) {
			metrics.WaitTimeouts.Inc()
			return ErrTimeout
		}
		_ = e.cond.wait(ctx) // predicate re-checked next iteration regardless of err
	}

	if e.autoReset {
		e.state.Store(false)
		e.undoWaitAllClaims()
		metrics.AutoResetConsumed.Inc()
	}
	return nil
}

// deadlinePassed reports whether ctx is already done. It does not block.
func deadlinePassed(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
