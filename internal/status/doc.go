// Package status implements the durable per-document status store: one JSON
// document holding every record, guarded by a cross-process named lock and
// replaced atomically on each write. Merge-update semantics let concurrent
// writers in different processes touch disjoint fields safely.
package status
