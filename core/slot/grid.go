// Package slot defines the fixed discretization of a day into five-minute
// slots and conversions between clock strings, minutes and slot indices.
package slot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinutesPerSlot is the width of one slot.
	MinutesPerSlot = 5
	// PerHour is the number of slots in one hour.
	PerHour = 60 / MinutesPerSlot
	// PerDay is the size of the daily grid.
	PerDay = 24 * PerHour
	// MinutesPerDay is used to wrap clock distances across midnight.
	MinutesPerDay = 24 * 60
)

// ErrInvalidClock is returned when a string is not a valid "HH:MM" time.
var ErrInvalidClock = errors.New("invalid clock time")

// ParseClock converts "HH:MM" (24-hour) into minutes since midnight.
// Single-digit hours ("8:30") are accepted.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	h, m, ok := strings.Cut(s, ":")
	if !ok || h == "" || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 || len(h) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	mins, err := strconv.Atoi(m)
	if err != nil || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return hours*60 + mins, nil
}

// FormatClock renders minutes as "HH:MM", wrapping hours modulo 24.
func FormatClock(minutes int) string {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FromMinutes returns the slot containing the given minute.
func FromMinutes(minutes int) int { return minutes / MinutesPerSlot }

// ToMinutes returns the first minute covered by slot s.
func ToMinutes(s int) int { return s * MinutesPerSlot }

// Format renders the start of slot s as "HH:MM".
func Format(s int) string { return FormatClock(ToMinutes(s)) }

// CeilSlots returns the number of slots needed to cover minutes.
func CeilSlots(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return (minutes + MinutesPerSlot - 1) / MinutesPerSlot
}

// ClockDistance returns the minutes from start to end, treating end <= start
// as crossing midnight.
func ClockDistance(start, end int) int {
	if end <= start {
		end += MinutesPerDay
	}
	return end - start
}

// Wrap maps any slot index onto the daily grid.
func Wrap(s int) int {
	s %= PerDay
	if s < 0 {
		s += PerDay
	}
	return s
}

// Overlaps reports whether [aStart, aStart+aLen) and [bStart, bStart+bLen)
// intersect.
func Overlaps(aStart, aLen, bStart, bLen int) bool {
	return aStart < bStart+bLen && bStart < aStart+aLen
}
