package timing

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/studymap/pkg/ai"
	"github.com/OFFIS-RIT/studymap/pkg/logger"
)

// FormatDuration renders d as HH:MM:SS, truncating sub-second parts.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// LogJob logs how long a job took and, when metrics is set, the embedding
// usage of the whole process so far. Jobs run concurrently and share one
// provider, so usage is not attributed to single jobs.
func LogJob(start time.Time, metrics ai.MetricsReporter) {
	if metrics != nil {
		m := metrics.GetMetrics()
		logger.Info(
			"AI Metrics (process total)",
			"input_tokens", m.InputTokens,
			"total_tokens", m.TotalTokens,
			"requests", m.Requests,
			"duration", FormatDuration(time.Duration(m.DurationMs)*time.Millisecond),
		)
	}

	logger.Info("Processing time", "duration", FormatDuration(time.Since(start)))
}
