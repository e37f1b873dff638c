package services_test

import (
	"errors"
	"fmt"
	"testing"

	"docforge/internal/services"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("disk full")
	err := services.Wrap(services.ErrPersistence, "status", "write", "replace status file", base)
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "converter", "run", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{services.Wrap(services.ErrLockTimeout, "lock", "acquire", "status", nil), "lock_timeout"},
		{services.Wrap(services.ErrValidation, "worker", "validate", "missing path", nil), "validation"},
		{services.Wrap(services.ErrTimeout, "converter", "run", "exceeded ceiling", nil), "timeout"},
		{services.Wrap(services.ErrNotFound, "status", "get", "", nil), "not_found"},
		{fmt.Errorf("plain: %w", errors.New("boom")), "internal"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.kind {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.kind)
		}
	}
}
