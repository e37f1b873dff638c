// Package workqueue implements the durable FIFO of pending document IDs as
// one file per entry in a shared directory. Entries are pointers into the
// status store, not payloads: dequeue deletes the entry before work starts,
// and everything the worker needs afterwards lives in the record.
package workqueue
