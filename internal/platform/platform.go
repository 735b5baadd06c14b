// Package platform is the thin seam between pevent's pure-Go
// implementation and a host OS's native event primitive, mirroring
// pevents.cpp's #ifdef _WIN32 split: on Windows, Native forwards directly
// to the real Win32 CreateEvent/SetEvent/ResetEvent/WaitForSingleObject/
// CloseHandle calls via golang.org/x/sys/windows (there is no multi-object
// wait); everywhere else New returns nil and only the pure-Go algorithm
// implemented by the rest of this module exists. Nothing in the public
// pevent API depends on this package today — it exists so a future
// Windows-backed Event can opt into kernel-object semantics (shared
// across processes, visible to Windows tooling) without the caller's code
// changing, exactly as the original library lets callers ignore which
// branch they're compiled against.
package platform

import "time"

// Native is implemented by a platform adapter capable of backing an Event
// with a real OS event object instead of pevent's own mutex/cond
// machinery. CreateEvent, Set, Reset and Wait mirror Win32's
// CreateEventW/SetEvent/ResetEvent/WaitForSingleObject.
type Native interface {
	CreateEvent(manualReset, initialState bool) (Handle, error)
	Set(Handle) error
	Reset(Handle) error
	Wait(h Handle, timeout time.Duration) (signaled bool, err error)
	Close(Handle) error
}

// Handle is an opaque platform event handle.
type Handle uintptr

// Supported reports whether this build has a native adapter (true only on
// the windows build of this package; the generic build always returns
// false).
var Supported bool
