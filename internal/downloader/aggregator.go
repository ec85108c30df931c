package downloader

import (
	"context"
	"fmt"
	"time"

	"assetfetch/internal/downloader/core"
	apperrors "assetfetch/internal/errors"
)

// ProgressChannel is the sink channel all acquisition progress is published on.
const ProgressChannel = "download.version"

const oneMegabyte = 1024.0 * 1024.0

// supervise publishes progress until the pool drains, a worker fails or ctx
// is cancelled. A failure is returned as soon as the pool is stopped; tasks
// already running finish on their own and exec.Done reports when they have.
// Cancellation waits for the aborted workers.
func (a *Acquirer) supervise(ctx context.Context, plan *Plan, exec *Executor) error {
	estimator := core.NewThroughputEstimator()
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		if err := exec.Err(); err != nil {
			exec.Stop()
			return err
		}

		select {
		case <-exec.Done():
			return exec.Err()
		case <-ctx.Done():
			exec.Abort()
			<-exec.Done()
			return apperrors.Cancelled(ctx.Err())
		case <-ticker.C:
			speed := estimator.Feed(exec.Counters().Network.Load()) / oneMegabyte
			percent, message := progressMessage(plan, exec.Counters().Snapshot(), speed)
			a.sink.SetProgress(ProgressChannel, percent, message)
		}
	}
}

// progressMessage renders the current progress in the plan's mode.
func progressMessage(plan *Plan, stats Stats, speed float64) (int, string) {
	if plan.UseFileCounter() || plan.TotalSize() <= 0 {
		total := plan.TotalFiles()
		return percentOf(stats.Files, total),
			fmt.Sprintf("Downloading game files (%d/%d, %.2f MB/s)", stats.Files, total, speed)
	}

	total := plan.TotalSize()
	return percentOf(stats.Processed, total),
		fmt.Sprintf("Downloading game files (%.2f/%.2f MB, %.2f MB/s)",
			float64(stats.Processed)/oneMegabyte, float64(total)/oneMegabyte, speed)
}

func percentOf(n, total int64) int {
	if total <= 0 {
		return 0
	}
	p := n * 100 / total
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return int(p)
}
