package ipc_test

import (
	"context"
	"testing"

	"docforge/internal/convert"
	"docforge/internal/coordinator"
	"docforge/internal/daemon"
	"docforge/internal/document"
	"docforge/internal/ipc"
	"docforge/internal/logging"
	"docforge/internal/testsupport"
	"docforge/internal/worker"
)

type idleConverter struct{}

func (idleConverter) Start(context.Context, convert.Request) (convert.Job, error) {
	return nil, context.Canceled
}

func newClient(t *testing.T) (*ipc.Client, *coordinator.Coordinator, func()) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	locks := testsupport.NewLockManager(t, cfg)
	store := testsupport.NewStore(t, cfg, locks)
	queue := testsupport.NewQueue(t, cfg, locks)
	w, err := worker.New(cfg, store, queue, idleConverter{}, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("worker.New failed: %v", err)
	}
	d, err := daemon.New(cfg, store, queue, w, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	coord, err := coordinator.New(cfg, store, queue, logging.NewNop())
	if err != nil {
		t.Fatalf("coordinator.New failed: %v", err)
	}

	stopRequested := make(chan struct{}, 1)
	server, err := ipc.NewServer(context.Background(), cfg.SocketPath(), d, coord, func() {
		select {
		case stopRequested <- struct{}{}:
		default:
		}
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer failed: %v", err)
	}
	server.Serve()

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		server.Close()
		t.Fatalf("ipc.Dial failed: %v", err)
	}
	cleanup := func() {
		client.Close()
		server.Close()
	}
	return client, coord, cleanup
}

func TestStatusRoundTrip(t *testing.T) {
	client, _, cleanup := newClient(t)
	defer cleanup()

	resp, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if resp.Running {
		t.Fatal("daemon was never started, running should be false")
	}
	if resp.PID == 0 {
		t.Fatal("PID should be populated")
	}
}

func TestAddDescribeListRoundTrip(t *testing.T) {
	client, _, cleanup := newClient(t)
	defer cleanup()

	source := testsupport.WriteSourceFile(t, "paper.pdf", "%PDF-1.4 body")
	added, err := client.Add(ipc.AddRequest{
		Path:    source,
		Options: document.ConversionOptions{ExportFormat: document.ExportJSON},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if added.Document == nil || added.Document.Status != document.StatusQueued {
		t.Fatalf("expected queued document, got %+v", added.Document)
	}
	if added.Document.Options.ExportFormat != document.ExportJSON {
		t.Fatalf("options not carried: %+v", added.Document.Options)
	}

	desc, err := client.Describe(added.Document.ID)
	if err != nil || !desc.Found {
		t.Fatalf("Describe failed: found=%v err=%v", desc != nil && desc.Found, err)
	}
	if desc.Document.FileName != "paper.pdf" {
		t.Fatalf("file name: got %q", desc.Document.FileName)
	}

	list, err := client.List()
	if err != nil || len(list.Documents) != 1 {
		t.Fatalf("List failed: %v err=%v", list, err)
	}
	filtered, err := client.List("completed")
	if err != nil || len(filtered.Documents) != 0 {
		t.Fatalf("filtered List should be empty: %v err=%v", filtered, err)
	}

	pending, err := client.QueueList()
	if err != nil || len(pending.IDs) != 1 || pending.IDs[0] != added.Document.ID {
		t.Fatalf("QueueList wrong: %v err=%v", pending, err)
	}
}

func TestCancelRequiresProcessing(t *testing.T) {
	client, _, cleanup := newClient(t)
	defer cleanup()

	source := testsupport.WriteSourceFile(t, "paper.pdf", "%PDF-1.4 body")
	added, err := client.Add(ipc.AddRequest{Path: source})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := client.Cancel(added.Document.ID); err == nil {
		t.Fatal("cancel of a queued document should fail")
	}
}

func TestStopRequestsShutdown(t *testing.T) {
	client, _, cleanup := newClient(t)
	defer cleanup()

	resp, err := client.Stop()
	if err != nil || !resp.Stopped {
		t.Fatalf("Stop failed: %+v err=%v", resp, err)
	}
}

func TestDescribeUnknownDocument(t *testing.T) {
	client, _, cleanup := newClient(t)
	defer cleanup()

	resp, err := client.Describe("no-such-id")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if resp.Found {
		t.Fatal("unknown document should not be found")
	}
}
