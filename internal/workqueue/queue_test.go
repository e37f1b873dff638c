package workqueue_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"docforge/internal/lockfile"
	"docforge/internal/logging"
	"docforge/internal/workqueue"
)

func newQueue(t *testing.T) *workqueue.Queue {
	t.Helper()
	dir := t.TempDir()
	locks, err := lockfile.NewManager(filepath.Join(dir, "locks"), 5*time.Second)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	queue, err := workqueue.New(filepath.Join(dir, "queue"), locks, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return queue
}

func TestFIFOOrder(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 20; i++ {
		id := uuid.NewString()
		ids = append(ids, id)
		if err := queue.Enqueue(id); err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
	}

	for i, want := range ids {
		got, found, err := queue.DequeueOldest(ctx)
		if err != nil {
			t.Fatalf("DequeueOldest %d failed: %v", i, err)
		}
		if !found {
			t.Fatalf("entry %d missing", i)
		}
		if got != want {
			t.Fatalf("dequeue %d: expected %s, got %s", i, want, got)
		}
	}

	if _, found, err := queue.DequeueOldest(ctx); err != nil || found {
		t.Fatalf("expected empty queue, found=%v err=%v", found, err)
	}
}

func TestDequeueRemovesEntryBeforeWork(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	if err := queue.Enqueue("doc-1"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, found, err := queue.DequeueOldest(ctx); err != nil || !found {
		t.Fatalf("DequeueOldest failed: found=%v err=%v", found, err)
	}

	entries, err := os.ReadDir(queue.Dir())
	if err != nil {
		t.Fatalf("read queue dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("dequeued entry still on disk: %d entries", len(entries))
	}
}

func TestListAllIsNonDestructive(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := queue.Enqueue(id); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	ids, err := queue.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("unexpected listing: %v", ids)
	}

	depth, err := queue.Depth(ctx)
	if err != nil || depth != 3 {
		t.Fatalf("expected depth 3 after listing, got %d err=%v", depth, err)
	}
}

func TestDuplicateEnqueueCreatesTwoEntries(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	if err := queue.Enqueue("doc-1"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := queue.Enqueue("doc-1"); err != nil {
		t.Fatalf("second Enqueue failed: %v", err)
	}
	depth, err := queue.Depth(ctx)
	if err != nil || depth != 2 {
		t.Fatalf("expected 2 entries, got %d err=%v", depth, err)
	}
}

func TestBurstEnqueueNoCollisions(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	const n = 200
	for i := 0; i < n; i++ {
		if err := queue.Enqueue(fmt.Sprintf("doc-%03d", i)); err != nil {
			t.Fatalf("burst Enqueue %d failed: %v", i, err)
		}
	}
	depth, err := queue.Depth(ctx)
	if err != nil || depth != n {
		t.Fatalf("expected %d entries, got %d err=%v", n, depth, err)
	}

	for i := 0; i < n; i++ {
		id, found, err := queue.DequeueOldest(ctx)
		if err != nil || !found {
			t.Fatalf("dequeue %d failed: found=%v err=%v", i, found, err)
		}
		if id != fmt.Sprintf("doc-%03d", i) {
			t.Fatalf("burst order broken at %d: got %s", i, id)
		}
	}
}

func TestContentMismatchEntryIsDiscarded(t *testing.T) {
	queue := newQueue(t)
	ctx := context.Background()

	if err := queue.Enqueue("doc-1"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	entries, err := os.ReadDir(queue.Dir())
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one entry: %v err=%v", entries, err)
	}
	path := filepath.Join(queue.Dir(), entries[0].Name())
	if err := os.WriteFile(path, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper failed: %v", err)
	}

	_, found, err := queue.DequeueOldest(ctx)
	if err != nil {
		t.Fatalf("DequeueOldest failed: %v", err)
	}
	if found {
		t.Fatal("tampered entry should not dequeue")
	}

	remaining, err := os.ReadDir(queue.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatal("tampered entry should be discarded")
	}
}

func TestEnqueueRejectsBadIDs(t *testing.T) {
	queue := newQueue(t)
	if err := queue.Enqueue(""); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := queue.Enqueue("../escape"); err == nil {
		t.Fatal("expected error for id with path separators")
	}
}
