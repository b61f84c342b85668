// Package calendar provides the core value types for the season cycle
// engine: calendar dates and season phases, plus the in-memory phase state
// with its listener fan-out.
package calendar

import (
	"fmt"
	"time"
)

// Date is an opaque calendar day, free of time-of-day and timezone. All
// simulated-time arithmetic in the engine goes through this type rather
// than time.Time directly.
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate constructs a Date, normalizing overflowing month/day values the
// same way time.Date does (e.g. month 13 rolls into the next year).
func NewDate(year, month, day int) Date {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return fromTime(t)
}

func fromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func (d Date) toTime() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// String renders the date as YYYY-MM-DD, the storage and wire format.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseDate parses a YYYY-MM-DD string as produced by String.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return fromTime(t), nil
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return fromTime(d.toTime().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.toTime().Before(other.toTime())
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.toTime().After(other.toTime())
}

// Equal reports whether d and other denote the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// DaysSince returns d - other in days (positive when d is later).
func (d Date) DaysSince(other Date) int {
	return int(d.toTime().Sub(other.toTime()).Hours() / 24)
}

// Weekday returns the day of the week d falls on.
func (d Date) Weekday() time.Weekday {
	return d.toTime().Weekday()
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// UnixMillis converts d to a Unix millisecond timestamp at midnight UTC,
// the format GameEvent.timestamp_ms and MilestoneEvent timestamps use.
func (d Date) UnixMillis() int64 {
	return d.toTime().UnixMilli()
}

// FromUnixMillis converts a Unix millisecond timestamp back to a Date,
// truncating time-of-day.
func FromUnixMillis(ms int64) Date {
	return fromTime(time.UnixMilli(ms).UTC())
}

// StartOfDayMillis and EndOfDayMillis bound the per-day event query
// (spec.md §4.10 step 1): EndOfDayMillis is the day's last millisecond, so
// the range is inclusive at both ends.
func (d Date) StartOfDayMillis() int64 {
	return d.toTime().UnixMilli()
}

func (d Date) EndOfDayMillis() int64 {
	return d.toTime().Add(24*time.Hour - time.Nanosecond).UnixMilli()
}
