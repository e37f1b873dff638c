// Package daemon ties the worker loop to process-level concerns: the
// single-instance lock file and the runtime status summary surfaced over IPC.
package daemon
