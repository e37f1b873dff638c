package workqueue

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"docforge/internal/lockfile"
	"docforge/internal/logging"
	"docforge/internal/services"
)

// LockName guards destructive queue directory operations.
const LockName = "queue"

const entrySuffix = ".job"

// entrySeq disambiguates entries created within the same nanosecond by one
// process; cross-process uniqueness comes from O_EXCL creation.
var entrySeq atomic.Uint64

// Queue is a durable FIFO of document IDs persisted as one small file per
// entry. Entry names embed a zero-padded creation timestamp so a plain
// lexicographic directory listing yields enqueue order.
type Queue struct {
	dir    string
	locks  *lockfile.Manager
	logger *slog.Logger
}

// New constructs a queue over the given directory.
func New(dir string, locks *lockfile.Manager, logger *slog.Logger) (*Queue, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("queue directory is required")
	}
	if locks == nil {
		return nil, errors.New("lock manager is required")
	}
	return &Queue{
		dir:    dir,
		locks:  locks,
		logger: logging.NewComponentLogger(logger, "workqueue"),
	}, nil
}

// Dir returns the queue directory.
func (q *Queue) Dir() string {
	return q.dir
}

// Enqueue appends a new entry for the document. Duplicate IDs create
// duplicate entries; deduplication is the caller's concern. Creation is
// atomic (O_EXCL), so no lock is needed on this path.
func (q *Queue) Enqueue(documentID string) error {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return services.Wrap(services.ErrValidation, "workqueue", "enqueue", "document id is required", nil)
	}
	if strings.ContainsAny(documentID, "/\\") {
		return services.Wrap(services.ErrValidation, "workqueue", "enqueue", "document id contains path separators", nil)
	}
	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return services.Wrap(services.ErrPersistence, "workqueue", "enqueue", "create queue directory", err)
	}

	for attempt := 0; attempt < 5; attempt++ {
		name := fmt.Sprintf("%020d-%06d-%s%s", time.Now().UnixNano(), entrySeq.Add(1)%1000000, documentID, entrySuffix)
		path := filepath.Join(q.dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return services.Wrap(services.ErrPersistence, "workqueue", "enqueue", path, err)
		}
		_, writeErr := file.WriteString(documentID)
		closeErr := file.Close()
		if writeErr != nil || closeErr != nil {
			os.Remove(path)
			return services.Wrap(services.ErrPersistence, "workqueue", "enqueue", "write entry "+path, errors.Join(writeErr, closeErr))
		}
		return nil
	}
	return services.Wrap(services.ErrPersistence, "workqueue", "enqueue", "could not create a unique entry name", nil)
}

// DequeueOldest removes and returns the oldest pending document ID. The
// second return is false when the queue is empty or the oldest entry could
// not be consumed; the loop is expected to simply retry later.
func (q *Queue) DequeueOldest(ctx context.Context) (string, bool, error) {
	var (
		documentID string
		found      bool
	)
	err := q.locks.WithLock(ctx, LockName, func() error {
		names, err := q.entryNames()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return nil
		}
		oldest := names[0]
		path := filepath.Join(q.dir, oldest)

		id := idFromEntryName(oldest)
		content, err := os.ReadFile(path)
		if err != nil {
			// Entry vanished between listing and read. With a single consumer
			// this should not happen; report empty and let the loop retry.
			q.logger.Warn("queue entry unreadable", logging.String("entry", oldest), logging.Error(err))
			return nil
		}
		if stored := strings.TrimSpace(string(content)); stored != id {
			q.logger.Warn("queue entry content mismatch, discarding",
				logging.String("entry", oldest),
				logging.String("content", stored))
			_ = os.Remove(path)
			return nil
		}
		if err := os.Remove(path); err != nil {
			q.logger.Warn("failed to remove dequeued entry", logging.String("entry", oldest), logging.Error(err))
			return nil
		}
		documentID = id
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return documentID, found, nil
}

// ListAll returns pending document IDs in enqueue order without consuming
// them. Intended for status and diagnostic surfaces.
func (q *Queue) ListAll(ctx context.Context) ([]string, error) {
	var ids []string
	err := q.locks.WithLock(ctx, LockName, func() error {
		names, err := q.entryNames()
		if err != nil {
			return err
		}
		ids = make([]string, 0, len(names))
		for _, name := range names {
			ids = append(ids, idFromEntryName(name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Depth returns the number of pending entries.
func (q *Queue) Depth(ctx context.Context) (int, error) {
	ids, err := q.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// entryNames lists entry files sorted ascending; os.ReadDir sorts by name and
// the zero-padded timestamp prefix makes that creation order.
func (q *Queue) entryNames() ([]string, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrPersistence, "workqueue", "list", q.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), entrySuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// idFromEntryName strips the timestamp and sequence prefix plus the suffix:
// <nanos>-<seq>-<documentID>.job
func idFromEntryName(name string) string {
	name = strings.TrimSuffix(name, entrySuffix)
	parts := strings.SplitN(name, "-", 3)
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}
