package worker

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"docforge/internal/services"
)

// checkDiskSpace verifies the staging directory has the configured headroom
// before a conversion writes into it. Skipped when the threshold is zero or
// the platform cannot report free space.
func (w *Worker) checkDiskSpace() error {
	minMB := w.cfg.Conversion.MinFreeDiskMB
	if minMB <= 0 {
		return nil
	}
	free, ok := freeDiskBytes(w.cfg.Paths.StagingDir)
	if !ok {
		return nil
	}
	required := uint64(minMB) * 1024 * 1024
	if free < required {
		return services.Wrap(services.ErrPersistence, "worker", "preflight",
			fmt.Sprintf("insufficient free disk space in staging directory: %s available, %s required",
				humanize.IBytes(free), humanize.IBytes(required)), nil)
	}
	return nil
}
