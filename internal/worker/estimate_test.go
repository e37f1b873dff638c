package worker

import (
	"testing"

	"docforge/internal/config"
	"docforge/internal/document"
)

func estimateConfig() *config.Config {
	cfg := config.Default()
	cfg.Conversion.ThroughputKBps = 100
	cfg.Conversion.MinEstimateSeconds = 10
	cfg.Conversion.MaxEstimateSeconds = 600
	return &cfg
}

func TestEstimateDurationScalesWithSize(t *testing.T) {
	cfg := estimateConfig()
	small := estimateDuration(1<<20, document.ConversionOptions{}, cfg)
	large := estimateDuration(16<<20, document.ConversionOptions{}, cfg)
	if large <= small {
		t.Fatalf("larger file should estimate longer: %v vs %v", small, large)
	}
}

func TestEstimateDurationIsBounded(t *testing.T) {
	cfg := estimateConfig()
	if got := estimateDuration(1, document.ConversionOptions{}, cfg); got != 10 {
		t.Fatalf("tiny file should clamp to minimum, got %v", got)
	}
	if got := estimateDuration(1<<40, document.ConversionOptions{}, cfg); got != 600 {
		t.Fatalf("huge file should clamp to maximum, got %v", got)
	}
}

func TestEstimateDurationSlowEnrichmentStretches(t *testing.T) {
	cfg := estimateConfig()
	plain := estimateDuration(16<<20, document.ConversionOptions{}, cfg)
	slow := estimateDuration(16<<20, document.ConversionOptions{DescribePictures: true}, cfg)
	if slow <= plain {
		t.Fatalf("slow enrichment should stretch the estimate: %v vs %v", plain, slow)
	}
}

func TestComputeProgressRampsAndCaps(t *testing.T) {
	if got := computeProgress(0, 100, false); got != 0 {
		t.Fatalf("progress at start should be 0, got %v", got)
	}
	if got := computeProgress(50, 100, false); got != 45 {
		t.Fatalf("halfway should be 45, got %v", got)
	}
	if got := computeProgress(100, 100, false); got != 90 {
		t.Fatalf("estimate exhausted should be 90, got %v", got)
	}
	if got := computeProgress(1000, 100, false); got != 99 {
		t.Fatalf("overtime must cap at 99, got %v", got)
	}
}

func TestComputeProgressMonotonic(t *testing.T) {
	for _, slow := range []bool{false, true} {
		prev := -1.0
		for elapsed := 0.0; elapsed <= 300; elapsed += 5 {
			got := computeProgress(elapsed, 100, slow)
			if got < prev {
				t.Fatalf("progress regressed at elapsed=%v slow=%v: %v < %v", elapsed, slow, got, prev)
			}
			prev = got
		}
	}
}

func TestComputeProgressStagedRampForSlowEnrichment(t *testing.T) {
	// The conversion stage ramps faster than the enrichment stage.
	early := computeProgress(20, 100, true)
	if early != 30 {
		t.Fatalf("staged ramp midpoint of conversion window should be 30, got %v", early)
	}
	late := computeProgress(70, 100, true)
	if late <= 60 || late >= 90 {
		t.Fatalf("enrichment window should sit between 60 and 90, got %v", late)
	}
}

func TestComputeProgressZeroEstimateSafe(t *testing.T) {
	if got := computeProgress(5, 0, false); got < 0 || got > 99 {
		t.Fatalf("zero estimate must stay in range, got %v", got)
	}
}
