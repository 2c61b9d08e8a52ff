package utils

import (
	"errors"
	"time"
)

const dateLayout = "02-01-2006"

var ErrInvalidDate = errors.New("Invalid date format. Please use 'dd-mm-yyyy'.")

// ParseDate parses a dd-mm-yyyy calendar date into a local midnight timestamp.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(dateLayout, value, time.Local)

	if err != nil {
		return time.Time{}, ErrInvalidDate
	}

	return parsed, nil
}

// StartOfDay truncates a timestamp to local midnight.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the first instant of the following day, for use as an
// exclusive upper bound in calendar-day comparisons.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
