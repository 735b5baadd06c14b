package pevent

import (
	stderrors "errors"

	"github.com/anacrolix/log"
	pkgerrors "github.com/pkg/errors"
)

// ErrTimeout is returned by Wait, WaitTimeout, WaitForMultipleEvents and
// WaitForMultipleEventsTimeout when the deadline expires before the wait's
// predicate is satisfied. It is the only error a caller is expected to
// handle (spec.md §7's "Propagation policy"): compare with errors.Is.
var ErrTimeout = stderrors.New("pevent: wait timed out")

// massert panics with a stack-traced, wrapped error when cond is false.
// Used only for the two classes of failure spec.md §7 puts outside the
// semantic contract: programmer error (destroying an Event that still has
// live registrations, or a multi-wait over no events) and internal
// bookkeeping failures (a wait-all eventsLeft count going negative). Neither is meant to be recovered from by callers; this
// mirrors the liberal use of `assert(...)` throughout the original
// pevents.cpp this package is modeled on. It logs at Error level before
// panicking so the failure shows up in whatever log sink the host wired
// up, even if the panic is later recovered somewhere above this call.
func massert(cond bool, msg string) {
	if !cond {
		logger.Levelf(log.Error, "pevent: %s", msg)
		panic(pkgerrors.New("pevent: " + msg))
	}
}
