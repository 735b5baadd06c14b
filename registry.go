package pevent

import (
	list "github.com/bahlo/generic-list-go"
)

// waitRegistration links one coordinator to one Event it is waiting on.
// One is appended to the Event's registry per (coordinator, event) pair
// that couldn't be satisfied immediately at registration time.
type waitRegistration struct {
	coordinator *coordinator
	waitIndex   int

	// signalledForThisWait is true when this event has been claimed toward
	// a wait-all coordinator's target (on auto-reset and manual-reset
	// events alike) but not yet consumed; dispatchAutoReset also sets it
	// on the wait-any registration it hands a signal to and removes.
	// ResetEvent and the auto-reset drain path undo a claim by clearing
	// this flag and giving the count back to the coordinator (spec.md
	// §4.1/§9).
	signalledForThisWait bool
}

// registry is the ordered sequence of waitRegistrations an Event keeps for
// multi-wait support (spec.md §3's "insertion-order... front removal and
// middle erase-by-predicate"). Grounded on github.com/bahlo/generic-list-go,
// the closest Go analogue of the original's std::deque<WaitRegistration>:
// PushBack/Front/Remove give the same O(1) shapes std::remove_if and
// deque::pop_front provide in pevents.cpp.
type registry struct {
	l *list.List[*waitRegistration]
}

func newRegistry() *registry {
	return &registry{l: list.New[*waitRegistration]()}
}

func (r *registry) pushBack(w *waitRegistration) {
	r.l.PushBack(w)
}

// removeExpired drops every registration whose coordinator is no longer
// waiting (stillWaiting observed false), decrementing and possibly
// destroying each one's coordinator. Called opportunistically whenever a
// caller already holds the event's mutex, so cleanup never needs its own
// pass (spec.md §4.1's Destroy, §4.3's registration-loop sweep).
func (r *registry) removeExpired() {
	for e := r.l.Front(); e != nil; {
		next := e.Next()
		w := e.Value
		if !w.coordinator.stillWaiting.Load() {
			r.l.Remove(e)
			w.coordinator.release()
		}
		e = next
	}
}

// walkAndRemove visits every registration front-to-back, calling f for
// each. If f returns true the registration is removed from the registry.
// If f returns (_, stop=true) the walk ends immediately, mirroring
// SetEvent's early-out once it has handed an auto-reset signal to a
// wait-any coordinator (spec.md §4.2).
func (r *registry) walkAndRemove(f func(*waitRegistration) (remove, stop bool)) {
	for e := r.l.Front(); e != nil; {
		next := e.Next()
		remove, stop := f(e.Value)
		if remove {
			r.l.Remove(e)
		}
		if stop {
			return
		}
		e = next
	}
}

func (r *registry) len() int {
	return r.l.Len()
}
