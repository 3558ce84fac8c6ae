package util

import (
	"time"
)

// NextTradingDate rolls a date forward past weekends. Forecast target dates
// land horizon calendar days out, which can be a Saturday or Sunday with no
// EOD close to back-fill against; those roll to the following Monday.
// Exchange holidays are not modeled.
func NextTradingDate(input time.Time) time.Time {
	next := input
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// DateOnly truncates a timestamp to midnight UTC, the granularity of every
// date column in the schema.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
