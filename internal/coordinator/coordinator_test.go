package coordinator_test

import (
	"context"
	"errors"
	"testing"

	"docforge/internal/coordinator"
	"docforge/internal/document"
	"docforge/internal/logging"
	"docforge/internal/services"
	"docforge/internal/status"
	"docforge/internal/testsupport"
	"docforge/internal/workqueue"
)

type fixture struct {
	coord *coordinator.Coordinator
	store *status.Store
	queue *workqueue.Queue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	locks := testsupport.NewLockManager(t, cfg)
	store := testsupport.NewStore(t, cfg, locks)
	queue := testsupport.NewQueue(t, cfg, locks)
	coord, err := coordinator.New(cfg, store, queue, logging.NewNop())
	if err != nil {
		t.Fatalf("coordinator.New failed: %v", err)
	}
	return &fixture{coord: coord, store: store, queue: queue}
}

func TestSubmitRegistersReadyRecord(t *testing.T) {
	f := newFixture(t)
	source := testsupport.WriteSourceFile(t, "paper.pdf", "%PDF-1.4 body")

	rec, err := f.coord.Submit(context.Background(), source)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("submit should assign an ID")
	}
	if rec.Status != document.StatusReady {
		t.Fatalf("expected ready, got %s", rec.Status)
	}
	if rec.FileName != "paper.pdf" {
		t.Fatalf("file name: got %q", rec.FileName)
	}
	if rec.FileSize == 0 {
		t.Fatal("file size should be recorded")
	}
}

func TestSubmitRejectsMissingFile(t *testing.T) {
	f := newFixture(t)
	_, err := f.coord.Submit(context.Background(), "/nonexistent/paper.pdf")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnqueueSnapshotsOptionsAndAppendsEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := testsupport.WriteSourceFile(t, "paper.pdf", "%PDF-1.4 body")
	rec, err := f.coord.Submit(ctx, source)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	opts := document.ConversionOptions{ExportFormat: document.ExportJSON, ExtractImages: true}
	queued, err := f.coord.Enqueue(ctx, rec.ID, opts)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if queued.Status != document.StatusQueued {
		t.Fatalf("expected queued, got %s", queued.Status)
	}
	if queued.QueuedTime == nil {
		t.Fatal("queued time should be stamped")
	}
	if queued.Options.ExportFormat != document.ExportJSON || !queued.Options.ExtractImages {
		t.Fatalf("options not snapshotted: %+v", queued.Options)
	}

	pending, err := f.queue.ListAll(ctx)
	if err != nil || len(pending) != 1 || pending[0] != rec.ID {
		t.Fatalf("queue entry missing: %v err=%v", pending, err)
	}
}

func TestEnqueueRejectsActiveDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := testsupport.WriteSourceFile(t, "paper.pdf", "%PDF-1.4 body")
	rec, err := f.coord.Submit(ctx, source)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := f.coord.Enqueue(ctx, rec.ID, document.ConversionOptions{}); err != nil {
		t.Fatalf("first Enqueue failed: %v", err)
	}

	_, err = f.coord.Enqueue(ctx, rec.ID, document.ConversionOptions{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for queued document, got %v", err)
	}
}

func TestRequestCancelOnlyWhileProcessing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := testsupport.WriteSourceFile(t, "paper.pdf", "%PDF-1.4 body")
	rec, err := f.coord.Submit(ctx, source)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	err = f.coord.RequestCancel(ctx, rec.ID)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("cancel of a ready document should fail validation, got %v", err)
	}

	if _, err := f.coord.Enqueue(ctx, rec.ID, document.ConversionOptions{}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := f.store.Transition(ctx, rec.ID, document.StatusProcessing, nil); err != nil {
		t.Fatalf("transition to processing: %v", err)
	}

	if err := f.coord.RequestCancel(ctx, rec.ID); err != nil {
		t.Fatalf("RequestCancel failed: %v", err)
	}
	updated, _, err := f.store.Get(ctx, rec.ID)
	if err != nil || !updated.CancelRequested {
		t.Fatalf("cancel flag not set: %+v err=%v", updated, err)
	}
}

func TestResetClearsStateButKeepsOutputFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := testsupport.WriteSourceFile(t, "paper.pdf", "%PDF-1.4 body")
	rec, err := f.coord.Submit(ctx, source)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := f.coord.Enqueue(ctx, rec.ID, document.ConversionOptions{}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := f.store.Transition(ctx, rec.ID, document.StatusProcessing, nil); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if _, err := f.store.Transition(ctx, rec.ID, document.StatusCompleted, map[string]any{
		document.FieldOutputFile: "/tmp/out/paper.md",
		document.FieldProgress:   100.0,
	}); err != nil {
		t.Fatalf("completed: %v", err)
	}

	reset, err := f.coord.Reset(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if reset.Status != document.StatusReady {
		t.Fatalf("expected ready, got %s", reset.Status)
	}
	if reset.Progress != 0 || reset.Error != "" || reset.StartTime != nil || reset.EndTime != nil {
		t.Fatalf("reset did not clear run state: %+v", reset)
	}
	if reset.OutputFile != "/tmp/out/paper.md" {
		t.Fatalf("prior output file must survive reset, got %q", reset.OutputFile)
	}
}

func TestResetRejectsNonTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := testsupport.WriteSourceFile(t, "paper.pdf", "%PDF-1.4 body")
	rec, err := f.coord.Submit(ctx, source)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := f.coord.Reset(ctx, rec.ID); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReprocessReusesStoredOptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := testsupport.WriteSourceFile(t, "paper.pdf", "%PDF-1.4 body")
	rec, err := f.coord.Submit(ctx, source)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	opts := document.ConversionOptions{ExportFormat: document.ExportHTML, EnrichCode: true}
	if _, err := f.coord.Enqueue(ctx, rec.ID, opts); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := f.store.Transition(ctx, rec.ID, document.StatusProcessing, nil); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if _, err := f.store.Transition(ctx, rec.ID, document.StatusError, map[string]any{
		document.FieldError: "engine crashed",
	}); err != nil {
		t.Fatalf("error: %v", err)
	}

	requeued, err := f.coord.Reprocess(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Reprocess failed: %v", err)
	}
	if requeued.Status != document.StatusQueued {
		t.Fatalf("expected queued, got %s", requeued.Status)
	}
	if requeued.Options.ExportFormat != document.ExportHTML || !requeued.Options.EnrichCode {
		t.Fatalf("stored options not reused: %+v", requeued.Options)
	}

	pending, err := f.queue.ListAll(ctx)
	if err != nil || len(pending) != 2 {
		t.Fatalf("expected 2 queue entries after reprocess, got %v err=%v", pending, err)
	}
}

func TestClearCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"a.pdf", "b.pdf"} {
		source := testsupport.WriteSourceFile(t, name, "%PDF-1.4 body")
		rec, err := f.coord.Submit(ctx, source)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if _, err := f.coord.Enqueue(ctx, rec.ID, document.ConversionOptions{}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		if _, err := f.store.Transition(ctx, rec.ID, document.StatusProcessing, nil); err != nil {
			t.Fatalf("processing: %v", err)
		}
		if name == "a.pdf" {
			if _, err := f.store.Transition(ctx, rec.ID, document.StatusCompleted, nil); err != nil {
				t.Fatalf("completed: %v", err)
			}
		}
	}

	removed, err := f.coord.ClearCompleted(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 removed, got %d err=%v", removed, err)
	}
	remaining, err := f.coord.List(ctx)
	if err != nil || len(remaining) != 1 {
		t.Fatalf("expected 1 remaining record, got %d err=%v", len(remaining), err)
	}
}
