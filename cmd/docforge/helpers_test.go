package main

import (
	"testing"

	"docforge/internal/document"
)

func TestStatusLabel(t *testing.T) {
	if got := statusLabel(document.StatusProcessing); got != "Processing" {
		t.Fatalf("expected Processing, got %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	if got := formatSize(0); got != "-" {
		t.Fatalf("zero size should render as dash, got %q", got)
	}
	if got := formatSize(2048); got != "2.0 KiB" {
		t.Fatalf("expected 2.0 KiB, got %q", got)
	}
}

func TestFormatProgress(t *testing.T) {
	rec := &document.Record{Status: document.StatusProcessing, Progress: 41.7}
	if got := formatProgress(rec); got != "42%" {
		t.Fatalf("expected 42%%, got %q", got)
	}
	rec.Status = document.StatusQueued
	if got := formatProgress(rec); got != "-" {
		t.Fatalf("queued should render as dash, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("short strings pass through, got %q", got)
	}
	if got := truncate("a-much-longer-name", 10); got != "a-much-..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("5f2d1c3a-0000-4444-8888-ffffffffffff"); got != "5f2d1c3a" {
		t.Fatalf("expected first UUID group, got %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"only-a"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if out == "" {
		t.Fatal("table output should not be empty")
	}
}
