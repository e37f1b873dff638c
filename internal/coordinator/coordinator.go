package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docforge/internal/config"
	"docforge/internal/document"
	"docforge/internal/logging"
	"docforge/internal/services"
	"docforge/internal/status"
	"docforge/internal/workqueue"
)

// Coordinator is the submission-side API over the status store and work
// queue. Both the CLI and the IPC surface go through it, so lifecycle rules
// are enforced in exactly one place.
type Coordinator struct {
	cfg    *config.Config
	store  *status.Store
	queue  *workqueue.Queue
	logger *slog.Logger
}

// New constructs a coordinator.
func New(cfg *config.Config, store *status.Store, queue *workqueue.Queue, logger *slog.Logger) (*Coordinator, error) {
	if cfg == nil || store == nil || queue == nil {
		return nil, errors.New("config, status store, and work queue are required")
	}
	return &Coordinator{
		cfg:    cfg,
		store:  store,
		queue:  queue,
		logger: logging.NewComponentLogger(logger, "coordinator"),
	}, nil
}

// Submit registers a new document in the ready state. It does not enqueue.
func (c *Coordinator) Submit(ctx context.Context, filePath string) (*document.Record, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, services.Wrap(services.ErrValidation, "coordinator", "submit", "file path is required", nil)
	}
	absolute, err := filepath.Abs(filePath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "coordinator", "submit", "resolve path "+filePath, err)
	}
	info, err := os.Stat(absolute)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "coordinator", "submit", "source file not found: "+absolute, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "coordinator", "submit", "source is a directory: "+absolute, nil)
	}

	id := uuid.NewString()
	rec, err := c.store.MergeUpdate(ctx, id, map[string]any{
		document.FieldFileName: filepath.Base(absolute),
		document.FieldFilePath: absolute,
		document.FieldFileSize: info.Size(),
		document.FieldStatus:   document.StatusReady,
		document.FieldProgress: 0.0,
	})
	if err != nil {
		return nil, err
	}
	c.logger.Info("document submitted",
		logging.String(logging.FieldDocumentID, id),
		logging.String("file", rec.FileName))
	return rec, nil
}

// Enqueue snapshots the conversion options onto the record, transitions it to
// queued, and appends a queue entry. Allowed from ready or, as a reprocess,
// from any terminal state.
func (c *Coordinator) Enqueue(ctx context.Context, id string, opts document.ConversionOptions) (*document.Record, error) {
	rec, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "coordinator", "enqueue", "unknown document "+id, nil)
	}
	if rec.Status != document.StatusReady && !document.IsTerminal(rec.Status) {
		return nil, services.Wrap(services.ErrValidation, "coordinator", "enqueue",
			"document "+id+" is "+string(rec.Status)+", expected ready or a finished state", nil)
	}

	updated, err := c.store.Transition(ctx, id, document.StatusQueued, map[string]any{
		document.FieldOptions:         opts,
		document.FieldQueuedTime:      time.Now().UTC(),
		document.FieldCancelRequested: false,
		document.FieldProgress:        0.0,
	})
	if err != nil {
		return nil, err
	}
	if err := c.queue.Enqueue(id); err != nil {
		return nil, err
	}
	c.logger.Info("document enqueued", logging.String(logging.FieldDocumentID, id))
	return updated, nil
}

// RequestCancel flags a processing document for cooperative cancellation. The
// worker observes the flag on its next supervision poll.
func (c *Coordinator) RequestCancel(ctx context.Context, id string) error {
	rec, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return services.Wrap(services.ErrNotFound, "coordinator", "cancel", "unknown document "+id, nil)
	}
	if rec.Status != document.StatusProcessing {
		return services.Wrap(services.ErrValidation, "coordinator", "cancel",
			"document "+id+" is "+string(rec.Status)+", only processing documents can be cancelled", nil)
	}
	_, err = c.store.MergeUpdate(ctx, id, map[string]any{
		document.FieldCancelRequested: true,
	})
	if err == nil {
		c.logger.Info("cancellation requested", logging.String(logging.FieldDocumentID, id))
	}
	return err
}

// Reset forces a finished document back to ready, clearing progress and error
// state. The prior output file is deliberately kept until the next successful
// run overwrites it.
func (c *Coordinator) Reset(ctx context.Context, id string) (*document.Record, error) {
	rec, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "coordinator", "reset", "unknown document "+id, nil)
	}
	if !document.IsTerminal(rec.Status) {
		return nil, services.Wrap(services.ErrValidation, "coordinator", "reset",
			"document "+id+" is "+string(rec.Status)+", only finished documents can be reset", nil)
	}
	return c.store.Transition(ctx, id, document.StatusReady, map[string]any{
		document.FieldProgress:               0.0,
		document.FieldElapsedTime:            0.0,
		document.FieldQueuedTime:             nil,
		document.FieldStartTime:              nil,
		document.FieldEndTime:                nil,
		document.FieldError:                  "",
		document.FieldErrorDetails:           nil,
		document.FieldStdErr:                 "",
		document.FieldChunksError:            "",
		document.FieldCancelRequested:        false,
		document.FieldEnhancementsInProgress: false,
		document.FieldActiveEnhancements:     nil,
	})
}

// Reprocess re-enqueues a finished document with its stored option snapshot.
func (c *Coordinator) Reprocess(ctx context.Context, id string) (*document.Record, error) {
	rec, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "coordinator", "reprocess", "unknown document "+id, nil)
	}
	if !document.IsTerminal(rec.Status) {
		return nil, services.Wrap(services.ErrValidation, "coordinator", "reprocess",
			"document "+id+" is "+string(rec.Status)+", only finished documents can be reprocessed", nil)
	}
	return c.Enqueue(ctx, id, rec.Options)
}

// Get returns one record.
func (c *Coordinator) Get(ctx context.Context, id string) (*document.Record, bool, error) {
	return c.store.Get(ctx, id)
}

// List returns all records, most recently updated first.
func (c *Coordinator) List(ctx context.Context) ([]*document.Record, error) {
	return c.store.List(ctx)
}

// Pending returns the queued document IDs in enqueue order.
func (c *Coordinator) Pending(ctx context.Context) ([]string, error) {
	return c.queue.ListAll(ctx)
}

// ClearCompleted removes completed records, reporting how many were dropped.
func (c *Coordinator) ClearCompleted(ctx context.Context) (int, error) {
	return c.store.ClearStatuses(ctx, document.StatusCompleted)
}

// Remove deletes records outright.
func (c *Coordinator) Remove(ctx context.Context, ids ...string) (int, error) {
	return c.store.Remove(ctx, ids...)
}

// DefaultOptions derives the option snapshot from configuration defaults.
func (c *Coordinator) DefaultOptions() document.ConversionOptions {
	return document.ConversionOptions{
		ExportFormat: document.ExportMarkdown,
		Chunking: document.ChunkingOptions{
			Tokenizer:      c.cfg.Chunking.Tokenizer,
			TokenizerModel: c.cfg.Chunking.TokenizerModel,
			MaxTokens:      c.cfg.Chunking.MaxTokens,
		},
	}
}
