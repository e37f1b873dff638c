package testsupport

import (
	"testing"
	"time"

	"docforge/internal/config"
	"docforge/internal/lockfile"
	"docforge/internal/logging"
	"docforge/internal/status"
	"docforge/internal/workqueue"
)

// NewLockManager builds a lock manager rooted in the test config's lock
// directory.
func NewLockManager(t testing.TB, cfg *config.Config) *lockfile.Manager {
	t.Helper()
	locks, err := lockfile.NewManager(cfg.LockDir(), time.Duration(cfg.Workflow.LockTimeoutSeconds)*time.Second)
	if err != nil {
		t.Fatalf("new lock manager: %v", err)
	}
	return locks
}

// NewStore builds a status store over the test config's status file.
func NewStore(t testing.TB, cfg *config.Config, locks *lockfile.Manager) *status.Store {
	t.Helper()
	store, err := status.NewStore(cfg.StatusFilePath(), locks, logging.NewNop())
	if err != nil {
		t.Fatalf("new status store: %v", err)
	}
	return store
}

// NewQueue builds a work queue over the test config's queue directory.
func NewQueue(t testing.TB, cfg *config.Config, locks *lockfile.Manager) *workqueue.Queue {
	t.Helper()
	queue, err := workqueue.New(cfg.QueueDir(), locks, logging.NewNop())
	if err != nil {
		t.Fatalf("new work queue: %v", err)
	}
	return queue
}
