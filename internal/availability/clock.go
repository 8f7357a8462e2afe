package availability

import (
	"fmt"
	"time"
)

// Times of day are carried as "HH:MM" strings in roster documents and
// converted to minutes from midnight for arithmetic.

// ParseClock converts "HH:MM" to minutes from midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes from midnight back to "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinutesOf returns the minutes from midnight of a timestamp in its location.
func MinutesOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
