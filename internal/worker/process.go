package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"docforge/internal/chunker"
	"docforge/internal/convert"
	"docforge/internal/document"
	"docforge/internal/logging"
	"docforge/internal/services"
)

type superviseOutcome int

const (
	outcomeFinished superviseOutcome = iota
	outcomeCancelled
	outcomeTimeout
	outcomeShutdown
)

// processDocument drives one dequeued document through its whole attempt.
// Every failure path ends in a terminal record state; nothing propagates out.
func (w *Worker) processDocument(ctx context.Context, documentID string) {
	logger := w.logger.With(logging.String(logging.FieldDocumentID, documentID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing document",
				logging.Any("panic", r),
				logging.String(logging.FieldEventType, "job_panic"))
			w.finalizeError(documentID, &document.ErrorDetails{
				Kind:    "internal",
				Message: fmt.Sprintf("panic: %v", r),
				Stack:   string(debug.Stack()),
			}, "", nil)
		}
	}()

	rec, ok, err := w.store.Get(ctx, documentID)
	if err != nil {
		w.setLastError(err)
		logger.Error("failed to load record for dequeued document", logging.Error(err))
		return
	}
	if !ok {
		// The queue is only a pointer list; an entry without a record is
		// stale and safe to drop.
		logger.Warn("dequeued document has no record, skipping",
			logging.String(logging.FieldEventType, "orphan_queue_entry"))
		return
	}

	if err := w.validate(rec); err != nil {
		logger.Warn("document failed validation", logging.Error(err))
		w.failDocument(ctx, documentID, err, "")
		return
	}
	if err := w.checkDiskSpace(); err != nil {
		logger.Warn("disk preflight failed", logging.Error(err))
		w.failDocument(ctx, documentID, err, "")
		return
	}

	info, err := os.Stat(rec.FilePath)
	if err != nil {
		w.failDocument(ctx, documentID, services.Wrap(services.ErrValidation, "worker", "stat",
			"source file unreadable: "+rec.FilePath, err), "")
		return
	}
	fileSize := info.Size()
	estimate := estimateDuration(fileSize, rec.Options, w.cfg)
	started := time.Now().UTC()

	updated, err := w.store.Transition(ctx, documentID, document.StatusProcessing, map[string]any{
		document.FieldStartTime:              started,
		document.FieldEndTime:                nil,
		document.FieldProgress:               0.0,
		document.FieldElapsedTime:            0.0,
		document.FieldFileSize:               fileSize,
		document.FieldEstimatedDuration:      estimate,
		document.FieldActiveEnhancements:     rec.Options.ActiveEnrichments(),
		document.FieldEnhancementsInProgress: false,
		document.FieldError:                  "",
		document.FieldErrorDetails:           nil,
		document.FieldStdErr:                 "",
	})
	if err != nil {
		w.setLastError(err)
		logger.Error("failed to transition document to processing", logging.Error(err))
		return
	}
	rec = updated

	logger.Info("conversion starting",
		logging.String("source", rec.FilePath),
		logging.Int64("file_size", fileSize),
		logging.Float64("estimated_duration", estimate))

	job, err := w.converter.Start(ctx, convert.Request{
		DocumentID: documentID,
		SourcePath: rec.FilePath,
		OutputDir:  w.cfg.Paths.StagingDir,
		Options:    rec.Options,
	})
	if err != nil {
		w.failDocument(ctx, documentID, err, "")
		return
	}

	outcome := w.supervise(ctx, documentID, job, estimate, started, rec.Options.SlowEnrichmentActive())
	switch outcome {
	case outcomeCancelled:
		w.handleCancelled(ctx, documentID, job, started, logger)
	case outcomeTimeout:
		w.handleTimeout(ctx, documentID, job, logger)
	case outcomeShutdown:
		w.handleShutdown(documentID, job, logger)
	case outcomeFinished:
		w.handleFinished(ctx, documentID, rec, job, started, logger)
	}
}

func (w *Worker) validate(rec *document.Record) error {
	if strings.TrimSpace(rec.FilePath) == "" || strings.TrimSpace(rec.FileName) == "" {
		return services.Wrap(services.ErrValidation, "worker", "validate",
			"record is missing file name or file path", nil)
	}
	if _, err := os.Stat(rec.FilePath); err != nil {
		return services.Wrap(services.ErrValidation, "worker", "validate",
			"source file not found: "+rec.FilePath, err)
	}
	return nil
}

// supervise polls the running job at a fixed cadence. Check order each poll is
// exit, then cancel flag, then timeout: a job that finished in the same window
// as a cancel request completes normally.
func (w *Worker) supervise(ctx context.Context, documentID string, job convert.Job, estimate float64, started time.Time, slowEnrichment bool) superviseOutcome {
	poll := w.supervisePoll
	if poll <= 0 {
		poll = time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	lastWritten := -1.0
	for {
		select {
		case <-job.Done():
			return outcomeFinished
		default:
		}

		current, ok, err := w.store.Get(ctx, documentID)
		if err == nil && ok && current.CancelRequested {
			return outcomeCancelled
		}

		elapsed := time.Since(started)
		if w.jobTimeout > 0 && elapsed > w.jobTimeout {
			return outcomeTimeout
		}

		progress := computeProgress(elapsed.Seconds(), estimate, slowEnrichment)
		if progress-lastWritten > w.cfg.Workflow.ProgressMinDelta {
			if _, err := w.store.MergeUpdate(ctx, documentID, map[string]any{
				document.FieldProgress:    progress,
				document.FieldElapsedTime: elapsed.Seconds(),
			}); err == nil {
				lastWritten = progress
			}
		}

		select {
		case <-ctx.Done():
			return outcomeShutdown
		case <-job.Done():
			return outcomeFinished
		case <-ticker.C:
		}
	}
}

func (w *Worker) handleCancelled(ctx context.Context, documentID string, job convert.Job, started time.Time, logger *slog.Logger) {
	_ = job.Kill()
	<-job.Done()
	w.removePartialOutput(job)

	now := time.Now().UTC()
	_, err := w.store.Transition(ctx, documentID, document.StatusCancelled, map[string]any{
		document.FieldProgress:               0.0,
		document.FieldElapsedTime:            now.Sub(started).Seconds(),
		document.FieldEndTime:                now,
		document.FieldCancelRequested:        false,
		document.FieldEnhancementsInProgress: false,
		document.FieldActiveEnhancements:     nil,
	})
	if err != nil {
		logger.Warn("failed to record cancellation", logging.Error(err))
		return
	}
	logger.Info("conversion cancelled",
		logging.String(logging.FieldEventType, "job_cancelled"))
}

func (w *Worker) handleTimeout(ctx context.Context, documentID string, job convert.Job, logger *slog.Logger) {
	_ = job.Kill()
	<-job.Done()
	res, _ := job.Result()

	err := services.Wrap(services.ErrTimeout, "worker", "supervise",
		fmt.Sprintf("conversion exceeded %s timeout", w.jobTimeout), nil)
	logger.Warn("conversion timed out",
		logging.Error(err),
		logging.String(logging.FieldEventType, "job_timeout"))
	w.failDocument(ctx, documentID, err, res.Stderr)
}

// handleShutdown winds down the in-flight job when the daemon itself is
// stopping. The loop context is already cancelled, so record writes use a
// fresh short-lived context.
func (w *Worker) handleShutdown(documentID string, job convert.Job, logger *slog.Logger) {
	_ = job.Kill()
	<-job.Done()
	w.removePartialOutput(job)

	writeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := w.store.Transition(writeCtx, documentID, document.StatusError, map[string]any{
		document.FieldError: "interrupted by worker shutdown",
		document.FieldErrorDetails: &document.ErrorDetails{
			Kind:    "internal",
			Message: "interrupted by worker shutdown",
		},
		document.FieldEndTime:                time.Now().UTC(),
		document.FieldEnhancementsInProgress: false,
		document.FieldActiveEnhancements:     nil,
		document.FieldCancelRequested:        false,
	})
	if err != nil {
		logger.Warn("failed to record shutdown interruption", logging.Error(err))
	}
}

func (w *Worker) handleFinished(ctx context.Context, documentID string, rec *document.Record, job convert.Job, started time.Time, logger *slog.Logger) {
	res, jobErr := job.Result()
	if jobErr != nil {
		logger.Warn("conversion failed", logging.Error(jobErr))
		w.failDocument(ctx, documentID, jobErr, res.Stderr)
		return
	}

	updates := map[string]any{
		document.FieldOutputFile:             res.OutputFile,
		document.FieldImagesExtracted:        res.ImagesExtracted,
		document.FieldProgress:               100.0,
		document.FieldElapsedTime:            time.Since(started).Seconds(),
		document.FieldEndTime:                time.Now().UTC(),
		document.FieldEnhancementsInProgress: false,
		document.FieldActiveEnhancements:     nil,
		document.FieldCancelRequested:        false,
		document.FieldError:                  "",
		document.FieldErrorDetails:           nil,
		document.FieldStdErr:                 "",
	}

	if rec.Options.Chunking.Enabled {
		chunksFile, chunksErr := w.runChunking(ctx, documentID, rec, res)
		if chunksErr != nil {
			// Chunking is an enhancement: its failure never demotes a
			// successful conversion.
			logger.Warn("chunking failed", logging.Error(chunksErr))
			updates[document.FieldChunksError] = chunksErr.Error()
			updates[document.FieldChunksFile] = ""
		} else {
			updates[document.FieldChunksFile] = chunksFile
			updates[document.FieldChunksError] = ""
		}
		updates[document.FieldEndTime] = time.Now().UTC()
		updates[document.FieldElapsedTime] = time.Since(started).Seconds()
	}

	if _, err := w.store.Transition(ctx, documentID, document.StatusCompleted, updates); err != nil {
		w.setLastError(err)
		logger.Warn("failed to finalize completed document", logging.Error(err))
		return
	}
	w.markCompleted()
	logger.Info("conversion completed",
		logging.String("output", res.OutputFile),
		logging.String(logging.FieldEventType, "job_completed"))
}

func (w *Worker) runChunking(ctx context.Context, documentID string, rec *document.Record, res convert.Result) (string, error) {
	if w.chunks == nil {
		return "", services.Wrap(services.ErrExternalTool, "worker", "chunk", "no chunking engine configured", nil)
	}
	_, _ = w.store.MergeUpdate(ctx, documentID, map[string]any{
		document.FieldEnhancementsInProgress: true,
		document.FieldActiveEnhancements:     []string{"chunking"},
	})
	outputPath := strings.TrimSuffix(res.OutputFile, filepath.Ext(res.OutputFile)) + ".chunks.json"
	return w.chunks.Chunk(ctx, chunker.Request{
		DocumentID: documentID,
		InputPath:  rec.FilePath,
		OutputPath: outputPath,
		Options:    rec.Options.Chunking,
	})
}

// failDocument records a terminal error on the document. Transition failures
// are logged, never propagated; the loop moves on either way.
func (w *Worker) failDocument(ctx context.Context, documentID string, cause error, stderr string) {
	details := &document.ErrorDetails{
		Kind:    services.Kind(cause),
		Message: cause.Error(),
	}
	w.finalizeErrorCtx(ctx, documentID, details, stderr, cause)
}

func (w *Worker) finalizeError(documentID string, details *document.ErrorDetails, stderr string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	w.finalizeErrorCtx(ctx, documentID, details, stderr, cause)
}

func (w *Worker) finalizeErrorCtx(ctx context.Context, documentID string, details *document.ErrorDetails, stderr string, cause error) {
	updates := map[string]any{
		document.FieldError:                  details.Message,
		document.FieldErrorDetails:           details,
		document.FieldEndTime:                time.Now().UTC(),
		document.FieldEnhancementsInProgress: false,
		document.FieldActiveEnhancements:     nil,
		document.FieldCancelRequested:        false,
	}
	if stderr != "" {
		updates[document.FieldStdErr] = stderr
	}
	if _, err := w.store.Transition(ctx, documentID, document.StatusError, updates); err != nil {
		w.setLastError(err)
		w.logger.Error("failed to record document error",
			logging.String(logging.FieldDocumentID, documentID),
			logging.Error(err),
			logging.Any("original_error", cause))
	}
}

func (w *Worker) removePartialOutput(job convert.Job) {
	path := job.OutputPath()
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("failed to remove partial output",
			logging.String("path", path),
			logging.Error(err))
	}
}
