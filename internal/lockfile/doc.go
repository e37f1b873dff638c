// Package lockfile provides named, cross-process advisory locks built on
// flock(2)-style file locks. Every piece of shared docforge state (the status
// document, the queue directory) is guarded by a lock from this package so the
// daemon and any number of CLI invocations can safely interleave.
package lockfile
