// Package worker runs the single sequential consumer that drains the work
// queue. Each iteration dequeues one document, supervises the external
// conversion job with progress estimation, timeout enforcement, and
// cooperative cancellation, and finalizes the record in the status store.
package worker
