package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"docforge/internal/config"
	"docforge/internal/logging"
	"docforge/internal/status"
	"docforge/internal/worker"
	"docforge/internal/workqueue"
)

// Daemon owns the worker loop and enforces single-instance execution through
// a lock file in the data directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *status.Store
	queue  *workqueue.Queue
	worker *worker.Worker

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	started time.Time
}

// Status is a point-in-time summary of daemon runtime state.
type Status struct {
	Running          bool
	PID              int
	StartedAt        time.Time
	QueueDepth       int
	CurrentDocument  string
	SessionCompleted int
	LastError        string
	StatusFilePath   string
	LockFilePath     string
}

// New constructs a daemon.
func New(cfg *config.Config, store *status.Store, queue *workqueue.Queue, w *worker.Worker, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || queue == nil || w == nil {
		return nil, errors.New("config, store, queue, and worker are required")
	}
	lockPath := filepath.Join(cfg.Paths.DataDir, "docforged.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		queue:    queue,
		worker:   w,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the worker.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another docforged instance holds %s", d.lockPath)
	}

	if err := d.worker.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}
	d.started = time.Now().UTC()
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.Int("pid", os.Getpid()),
		logging.String("data_dir", d.cfg.Paths.DataDir))
	return nil
}

// Stop winds down the worker and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}
	d.worker.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	d.logger.Info("daemon stopped")
}

// Status reports the daemon's runtime summary.
func (d *Daemon) Status(ctx context.Context) Status {
	st := Status{
		Running:          d.running.Load(),
		PID:              os.Getpid(),
		StartedAt:        d.started,
		CurrentDocument:  d.worker.CurrentDocument(),
		SessionCompleted: d.worker.SessionCompleted(),
		StatusFilePath:   d.store.Path(),
		LockFilePath:     d.lockPath,
	}
	if err := d.worker.LastError(); err != nil {
		st.LastError = err.Error()
	}
	if depth, err := d.queue.Depth(ctx); err == nil {
		st.QueueDepth = depth
	}
	return st
}
