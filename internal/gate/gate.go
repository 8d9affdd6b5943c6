// Package gate decides whether a built report may leave the process.
// Two conditions apply: the wall-clock push window and the per-day
// dedup backed by the push record store.
package gate

import (
	"fmt"
	"strings"
	"time"
)

// Window is the configured push window. Start and End are "HH:MM",
// inclusive on both ends.
type Window struct {
	Enabled    bool
	Start      string
	End        string
	OncePerDay bool
}

// Eligible reports whether a push may happen at now. With the window
// disabled only the once-per-day condition applies. Times compare as
// zero-padded "HH:MM" strings, which orders correctly and keeps the
// bounds inclusive.
func Eligible(now time.Time, w Window, pushedToday bool) bool {
	if w.OncePerDay && pushedToday {
		return false
	}
	if !w.Enabled {
		return true
	}

	clock := now.Format("15:04")
	return normalizeClock(w.Start) <= clock && clock <= normalizeClock(w.End)
}

// normalizeClock zero-pads the hour so "8:00" and "08:00" compare
// equal. Inputs are validated at config load; anything malformed here
// is returned unchanged.
func normalizeClock(s string) string {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return s
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return s
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}
