// Package version records this module's release version for diagnostics.
package version

// Version is the module's release version. Nothing in this module reads
// it; it is exported for callers to include in diagnostics.
var Version = "0.1.0-dev"
