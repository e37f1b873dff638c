package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleHandlerFoldsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	NewComponentLogger(logger, "worker").Info("document completed", String(FieldDocumentID, "abc"))

	line := buf.String()
	if !strings.Contains(line, "INFO worker: document completed") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "document_id=abc") {
		t.Fatalf("expected document_id attr in %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be folded into prefix: %q", line)
	}
}

func TestJSONHandlerLowercasesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Warn("queue entry orphaned")
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("expected lowercase level, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if parseLevel("nonsense") != parseLevel("info") {
		t.Fatal("unknown levels should default to info")
	}
}
