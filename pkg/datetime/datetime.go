// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/iwvelando/loan-compare/pkg/constants"
)

const (
	// DateLayout is the format expected in config files and is also the output
	// date format.
	DateLayout = constants.DateLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate parses a date string in the standard config layout.
func ParseDate(dateStr string) (time.Time, error) {
	return time.Parse(DateLayout, dateStr)
}

// MonthStart truncates a date to the first day of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// NextMonthStart returns the first day of the month following the given date.
func NextMonthStart(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0)
}

// MonthSequence returns n consecutive month-start dates beginning with the
// month containing start.
func MonthSequence(start time.Time, n int) []time.Time {
	seq := make([]time.Time, n)
	first := MonthStart(start)
	for i := 0; i < n; i++ {
		seq[i] = first.AddDate(0, i, 0)
	}
	return seq
}

// DayStart truncates a timestamp to midnight of its day.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
