// Package datetime provides date and time utility functions.
package datetime

import (
	"strings"
	"time"

	"github.com/iwvelando/payment-plan/pkg/constants"
)

const (
	// DateLayout is the format expected in plan files and is also the output
	// date format.
	DateLayout = constants.DateLayout
)

// ParseDate parses a plan date. Both the plain date layout and RFC 3339
// timestamps are accepted; the result is truncated to midnight UTC.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	t, err := time.Parse(DateLayout, trimmed)
	if err == nil {
		return t, nil
	}
	ts, tsErr := time.Parse(time.RFC3339, trimmed)
	if tsErr != nil {
		return time.Time{}, err
	}
	return StartOfDay(ts), nil
}

// StartOfDay drops the clock portion of t, keeping its calendar date in UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds the given number of months to t. When the day of month does
// not exist in the target month it is clamped to that month's last day, so
// January 31 plus one month is the last day of February rather than a date in
// March.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	first := time.Date(y, m+time.Month(months), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
