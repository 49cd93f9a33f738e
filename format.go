// ABOUTME: Compact formatting for elapsed times and request rates
// ABOUTME: Keeps the headless status line at a stable width

package main

import (
	"fmt"
	"math"
	"time"
)

// formatElapsed formats d as "59s", "3m07s" or "2h05m", right-aligned to 6 characters
func formatElapsed(d time.Duration) string {
	var s string

	switch {
	case d >= time.Hour:
		s = fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		s = fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		s = fmt.Sprintf("%ds", int(d.Seconds()))
	}

	return fmt.Sprintf("%6s", s)
}

// formatRate formats a requests-per-second value with precision that shrinks as it grows
func formatRate(perSec float64) string {
	if math.IsNaN(perSec) || math.IsInf(perSec, 0) || perSec < 0 {
		return "-- req/s"
	}

	switch {
	case perSec >= 100:
		return fmt.Sprintf("%.0f req/s", perSec)
	case perSec >= 10:
		return fmt.Sprintf("%.1f req/s", perSec)
	default:
		return fmt.Sprintf("%.2f req/s", perSec)
	}
}
