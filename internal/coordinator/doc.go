// Package coordinator exposes the submission-side operations on documents:
// submit, enqueue, cancel, reset, reprocess, and record maintenance.
package coordinator
