package document_test

import (
	"testing"
	"time"

	"docforge/internal/document"
)

func TestParseStatus(t *testing.T) {
	if status, ok := document.ParseStatus("  Processing "); !ok || status != document.StatusProcessing {
		t.Fatalf("expected processing, got %q ok=%v", status, ok)
	}
	if _, ok := document.ParseStatus("exploded"); ok {
		t.Fatal("unknown status should not parse")
	}
	if _, ok := document.ParseStatus(""); ok {
		t.Fatal("empty status should not parse")
	}
}

func TestTransitionTable(t *testing.T) {
	legal := []struct{ from, to document.Status }{
		{document.StatusReady, document.StatusQueued},
		{document.StatusQueued, document.StatusProcessing},
		{document.StatusQueued, document.StatusError},
		{document.StatusProcessing, document.StatusCompleted},
		{document.StatusProcessing, document.StatusError},
		{document.StatusProcessing, document.StatusCancelled},
		{document.StatusCompleted, document.StatusReady},
		{document.StatusCompleted, document.StatusQueued},
		{document.StatusError, document.StatusQueued},
		{document.StatusCancelled, document.StatusReady},
	}
	for _, tc := range legal {
		if !document.CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}

	illegal := []struct{ from, to document.Status }{
		{document.StatusReady, document.StatusCompleted},
		{document.StatusReady, document.StatusProcessing},
		{document.StatusQueued, document.StatusCompleted},
		{document.StatusQueued, document.StatusCancelled},
		{document.StatusProcessing, document.StatusReady},
		{document.StatusProcessing, document.StatusQueued},
		{document.StatusCompleted, document.StatusProcessing},
	}
	for _, tc := range illegal {
		if document.CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []document.Status{document.StatusCompleted, document.StatusError, document.StatusCancelled} {
		if !document.IsTerminal(status) {
			t.Errorf("%s should be terminal", status)
		}
	}
	for _, status := range []document.Status{document.StatusReady, document.StatusQueued, document.StatusProcessing} {
		if document.IsTerminal(status) {
			t.Errorf("%s should not be terminal", status)
		}
	}
}

func TestRawRoundTripPreservesUnknownFields(t *testing.T) {
	raw := map[string]any{
		"id":            "doc-1",
		"file_name":     "report.pdf",
		"status":        "ready",
		"progress":      12.5,
		"reviewer_note": "added by a future version",
	}

	rec, err := document.FromRaw(raw)
	if err != nil {
		t.Fatalf("FromRaw failed: %v", err)
	}
	if rec.ID != "doc-1" || rec.Status != document.StatusReady || rec.Progress != 12.5 {
		t.Fatalf("unexpected decoded record: %+v", rec)
	}
	if rec.Extra["reviewer_note"] != "added by a future version" {
		t.Fatalf("unknown field not preserved: %#v", rec.Extra)
	}

	rec.Progress = 50
	out, err := rec.ToRaw()
	if err != nil {
		t.Fatalf("ToRaw failed: %v", err)
	}
	if out["reviewer_note"] != "added by a future version" {
		t.Fatalf("unknown field dropped on re-encode: %#v", out)
	}
	if out["progress"] != 50.0 {
		t.Fatalf("expected updated progress, got %#v", out["progress"])
	}
}

func TestCloneIsIndependent(t *testing.T) {
	now := time.Now().UTC()
	rec := &document.Record{
		ID:                 "doc-2",
		Status:             document.StatusProcessing,
		StartTime:          &now,
		ActiveEnhancements: []string{"picture_description"},
		ErrorDetails:       &document.ErrorDetails{Kind: "timeout"},
		Extra:              map[string]any{"k": "v"},
	}
	cp := rec.Clone()
	cp.ActiveEnhancements[0] = "changed"
	cp.ErrorDetails.Kind = "changed"
	cp.Extra["k"] = "changed"

	if rec.ActiveEnhancements[0] != "picture_description" {
		t.Fatal("enhancements slice shared between clone and original")
	}
	if rec.ErrorDetails.Kind != "timeout" {
		t.Fatal("error details shared between clone and original")
	}
	if rec.Extra["k"] != "v" {
		t.Fatal("extra map shared between clone and original")
	}
}

func TestOptionsOutputExtension(t *testing.T) {
	cases := map[string]string{
		document.ExportMarkdown: ".md",
		document.ExportJSON:     ".json",
		document.ExportText:     ".txt",
		document.ExportHTML:     ".html",
		"":                      ".md",
	}
	for format, ext := range cases {
		opts := document.ConversionOptions{ExportFormat: format}
		if got := opts.OutputExtension(); got != ext {
			t.Errorf("format %q: expected %q, got %q", format, ext, got)
		}
	}
}

func TestActiveEnrichments(t *testing.T) {
	opts := document.ConversionOptions{EnrichFormula: true, DescribePictures: true}
	names := opts.ActiveEnrichments()
	if len(names) != 2 || names[0] != "formula_enrichment" || names[1] != "picture_description" {
		t.Fatalf("unexpected enrichments: %v", names)
	}
	if !opts.SlowEnrichmentActive() {
		t.Fatal("picture description should count as a slow enrichment")
	}
}
