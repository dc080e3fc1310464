package tracker

import "fmt"

// FormatDuration renders seconds as "Hh Mm", or "Mm" under an hour. Partial
// minutes are dropped, never rounded.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
