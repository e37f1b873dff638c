package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"docforge/internal/chunker"
	"docforge/internal/config"
	"docforge/internal/convert"
	"docforge/internal/logging"
	"docforge/internal/status"
	"docforge/internal/workqueue"
)

// Worker is the single sequential consumer of the work queue. It dequeues one
// document at a time, supervises the external conversion job, and finalizes
// the record. Per-job failures never escape the loop.
type Worker struct {
	cfg       *config.Config
	store     *status.Store
	queue     *workqueue.Queue
	converter convert.Converter
	chunks    chunker.Chunker
	logger    *slog.Logger

	pollInterval  time.Duration
	supervisePoll time.Duration
	errorRetry    time.Duration
	jobTimeout    time.Duration

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	currentID string
	completed int
}

// New constructs a worker. The converter is required; the chunker may be nil,
// in which case chunking-enabled jobs record a chunks error instead.
func New(cfg *config.Config, store *status.Store, queue *workqueue.Queue, converter convert.Converter, chunks chunker.Chunker, logger *slog.Logger) (*Worker, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if store == nil || queue == nil {
		return nil, errors.New("status store and work queue are required")
	}
	if converter == nil {
		return nil, errors.New("converter is required")
	}
	return &Worker{
		cfg:           cfg,
		store:         store,
		queue:         queue,
		converter:     converter,
		chunks:        chunks,
		logger:        logging.NewComponentLogger(logger, "worker"),
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		supervisePoll: time.Duration(cfg.Workflow.SupervisePollInterval) * time.Second,
		errorRetry:    time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		jobTimeout:    time.Duration(cfg.Conversion.TimeoutSeconds) * time.Second,
	}, nil
}

// Start begins background processing.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for the current job to be
// wound down.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

// Running reports whether the loop is active.
func (w *Worker) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// CurrentDocument returns the ID being processed, empty when idle.
func (w *Worker) CurrentDocument() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentID
}

// SessionCompleted reports how many documents this process completed. The
// counter is display-only and resets with the process.
func (w *Worker) SessionCompleted() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.completed
}

// LastError returns the most recent loop-level error, if any.
func (w *Worker) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	w.logger.Info("worker loop started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker loop stopped")
			return
		default:
		}

		documentID, found, err := w.queue.DequeueOldest(ctx)
		if err != nil {
			w.setLastError(err)
			w.logger.Error("failed to dequeue next document",
				logging.Error(err),
				logging.String(logging.FieldEventType, "dequeue_failed"),
				logging.String(logging.FieldErrorHint, "check queue directory and lock access"))
			w.sleep(ctx, w.errorRetry)
			continue
		}
		if !found {
			w.sleep(ctx, w.pollInterval)
			continue
		}

		w.setCurrent(documentID)
		w.processDocument(ctx, documentID)
		w.setCurrent("")
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (w *Worker) setCurrent(id string) {
	w.mu.Lock()
	w.currentID = id
	w.mu.Unlock()
}

func (w *Worker) setLastError(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

func (w *Worker) markCompleted() {
	w.mu.Lock()
	w.completed++
	w.mu.Unlock()
}
