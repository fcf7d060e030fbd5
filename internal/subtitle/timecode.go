package subtitle

import (
	"fmt"
	"math"
)

// FormatTime converts an offset in seconds to the SRT clock HH:MM:SS,mmm.
// Milliseconds are truncated, not rounded. Negative or NaN input is treated as zero.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	whole := math.Floor(seconds)
	total := int64(whole)

	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	millis := int64((seconds - whole) * 1000)

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
