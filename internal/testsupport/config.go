package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"docforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, shortens daemon intervals, and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Workflow.QueuePollInterval = 1
	cfgVal.Workflow.SupervisePollInterval = 1
	cfgVal.Workflow.ErrorRetryInterval = 1
	cfgVal.Conversion.MinEstimateSeconds = 1
	cfgVal.Conversion.MinFreeDiskMB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithConversionTimeout overrides the hard conversion timeout in seconds.
func WithConversionTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.TimeoutSeconds = seconds
	}
}

// WithStubbedBinaries writes stub executables for the provided names into a
// per-test bin directory and points the config at them. With no names, the
// default external binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"docling", "docling-chunk"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			switch name {
			case "docling":
				b.cfg.Conversion.Binary = target
			case "docling-chunk":
				b.cfg.Chunking.Binary = target
			}
		}
	}
}
