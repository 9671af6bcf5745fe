package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/ml-pipeline/internal/logger"
)

const (
	summarySeparator = "═══════════════════════════════════════════════════════════════"

	// minReportedDuration hides durations too short to be meaningful.
	minReportedDuration = 100 * time.Millisecond
)

// Summary collects what a stage run did.
type Summary struct {
	Download  *DownloadResult
	Extract   *ExtractResult
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns how long the run took, or zero if it has not finished.
func (s *Summary) Duration() time.Duration {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return 0
	}

	return s.EndTime.Sub(s.StartTime)
}

// AverageSpeed returns the transfer rate in bytes per second, or zero when nothing was transferred.
func (s *Summary) AverageSpeed() uint64 {
	duration := s.Duration()
	if s.Download == nil || s.Download.BytesWritten <= 0 || duration <= 0 {
		return 0
	}

	return uint64(float64(s.Download.BytesWritten) / duration.Seconds())
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// printSummary logs a formatted summary of the stage run.
func printSummary(ctx context.Context, summary *Summary) {
	logger.Info(ctx, summarySeparator)
	logger.Info(ctx, "                 DATA INGESTION SUMMARY")
	logger.Info(ctx, summarySeparator)

	if download := summary.Download; download != nil {
		if download.Skipped {
			logger.Infof(ctx, "Archive:          %s (reused, %s)", download.Path, download.Size)
		} else {
			logger.Infof(ctx, "Archive:          %s (downloaded, %s)", download.Path, download.Size)
			//nolint:gosec // BytesWritten is never negative.
			logger.Infof(ctx, "Data Downloaded:  %s", humanize.Bytes(uint64(download.BytesWritten)))
		}
	}

	if extract := summary.Extract; extract != nil {
		logger.Infof(ctx, "Extracted To:     %s", extract.Directory)
		logger.Infof(ctx, "  Files:          %d", extract.Files)
		logger.Infof(ctx, "  Directories:    %d", extract.Directories)
	}

	if duration := summary.Duration(); duration > minReportedDuration {
		logger.Infof(ctx, "Duration:         %s", formatDuration(duration))

		if speed := summary.AverageSpeed(); speed > 0 {
			logger.Infof(ctx, "Average Speed:    %s/s", humanize.Bytes(speed))
		}
	}

	logger.Info(ctx, summarySeparator)
}
