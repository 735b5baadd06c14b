package pevent

import "github.com/anacrolix/log"

// logger is package-level, overridable diagnostic output, following the
// same convention as github.com/anacrolix/torrent's many packages that
// take a log.Logger rather than force callers onto the global logger.
// Set/Wait's single-event fast paths stay silent; registration, claim,
// undo, and coordinator teardown log at Debug for tracing a stuck wait.
var logger = log.Default.WithNames("pevent")

// SetLogger replaces the package-level logger used for diagnostic tracing.
// It is not part of the semantic contract (spec.md §6/§7); it exists
// purely for operators debugging a stuck or leaking wait.
func SetLogger(l log.Logger) {
	logger = l
}
