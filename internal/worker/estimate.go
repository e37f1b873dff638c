package worker

import (
	"docforge/internal/config"
	"docforge/internal/document"
)

// estimateDuration predicts conversion time in seconds from source size and
// configured throughput, bounded to the configured range. A slow enrichment
// stretches the guess because vision passes dominate wall time.
func estimateDuration(fileSize int64, opts document.ConversionOptions, cfg *config.Config) float64 {
	throughput := float64(cfg.Conversion.ThroughputKBps)
	if throughput <= 0 {
		throughput = 50
	}
	seconds := float64(fileSize) / 1024 / throughput
	if opts.SlowEnrichmentActive() {
		seconds *= 3
	}
	if lower := float64(cfg.Conversion.MinEstimateSeconds); lower > 0 && seconds < lower {
		seconds = lower
	}
	if upper := float64(cfg.Conversion.MaxEstimateSeconds); upper > 0 && seconds > upper {
		seconds = upper
	}
	return seconds
}

// computeProgress maps elapsed time onto a 0-99 percentage. 100 is reserved
// for actual completion, so a stalled estimate never lies about being done.
func computeProgress(elapsed, estimate float64, slowEnrichment bool) float64 {
	if estimate <= 0 {
		estimate = 1
	}
	if elapsed < 0 {
		elapsed = 0
	}

	var progress float64
	switch {
	case slowEnrichment:
		// The base conversion occupies roughly the first part of the window
		// and the vision enrichment the rest, so the ramp is staged rather
		// than linear.
		convertWindow := estimate * 0.4
		switch {
		case elapsed <= convertWindow:
			progress = 60 * elapsed / convertWindow
		case elapsed <= estimate:
			progress = 60 + 30*(elapsed-convertWindow)/(estimate-convertWindow)
		default:
			progress = overtimeProgress(elapsed, estimate)
		}
	case elapsed <= estimate:
		progress = 90 * elapsed / estimate
	default:
		progress = overtimeProgress(elapsed, estimate)
	}

	if progress > 99 {
		progress = 99
	}
	return progress
}

// overtimeProgress crawls from 90 toward the 99 ceiling once the estimate is
// exhausted.
func overtimeProgress(elapsed, estimate float64) float64 {
	over := (elapsed - estimate) / estimate
	return 90 + 9*over
}
