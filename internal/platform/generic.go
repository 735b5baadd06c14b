//go:build !windows

package platform

// New returns nil on non-Windows builds: there is no OS-native event
// object to forward to, so pevent always uses its own mutex/cond
// implementation here.
func New() Native { return nil }
