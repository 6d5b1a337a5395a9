package engine

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Seconds converts a user-supplied number of seconds to a duration.
// NaN, infinities and negative values clamp to zero. Finite values too large
// for a Duration saturate at the largest Duration.
func Seconds(s float64) time.Duration {
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return 0
	}
	ns := math.Round(s * float64(time.Second))
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// FormatSeconds renders a timer for log and status text: "0" for zero,
// otherwise seconds rounded to one decimal with an "s" suffix ("3s", "2.5s").
func FormatSeconds(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	r := math.Round(d.Seconds()*10) / 10
	return strconv.FormatFloat(r, 'f', -1, 64) + "s"
}

// formatStamp renders a log timestamp ("3.0s").
func formatStamp(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
