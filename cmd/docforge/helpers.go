package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"docforge/internal/document"
)

var titleCaser = cases.Title(language.English)

func statusLabel(status document.Status) string {
	return titleCaser.String(string(status))
}

func formatSize(size int64) string {
	if size <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(size))
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return humanize.Time(*t)
}

func formatProgress(rec *document.Record) string {
	switch rec.Status {
	case document.StatusProcessing:
		return fmt.Sprintf("%.0f%%", rec.Progress)
	case document.StatusCompleted:
		return "100%"
	default:
		return "-"
	}
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return (time.Duration(seconds) * time.Second).String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func shortID(id string) string {
	if idx := strings.IndexByte(id, '-'); idx > 0 {
		return id[:idx]
	}
	return truncate(id, 8)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
