// Package schedule holds the time arithmetic used by reservations: civil
// dates, wall-clock times and the half-open interval overlap predicate that
// decides whether two bookings of the same space collide.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the storage and wire format of a reservation date.
const DateLayout = "2006-01-02"

// ErrInvalidClock is returned when a time of day cannot be parsed.
var ErrInvalidClock = errors.New("invalid time of day")

// ErrInvalidInterval is returned when an interval does not end after it starts.
var ErrInvalidInterval = errors.New("end time must be after start time")

// Clock is a wall-clock time of day expressed in minutes since midnight.
// Valid values range from 0 (00:00) to 1440 (24:00); 24:00 only makes sense
// as the end of an interval.
type Clock int

// EndOfDay is the exclusive upper bound of a day (24:00).
const EndOfDay Clock = 24 * 60

// ParseClock accepts "HH:MM" or "HH:MM:SS".  Seconds are accepted for
// compatibility with TIME columns but must be zero.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec != 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}
	c := Clock(h*60 + m)
	if c > EndOfDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return c, nil
}

// MustClock is ParseClock for literals; it panics on malformed input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the time of day of t, truncated to the minute.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// String formats the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// SQL formats the clock as "HH:MM:SS" for TIME columns.
func (c Clock) SQL() string {
	return c.String() + ":00"
}

// Interval is the half-open time range [Start, End).
type Interval struct {
	Start Clock
	End   Clock
}

// NewInterval builds an interval and rejects empty or inverted ranges.
func NewInterval(start, end Clock) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// ParseInterval parses both bounds and validates the result.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e)
}

// Validate reports ErrInvalidInterval unless Start < End.  A start of 24:00
// is never valid.
func (iv Interval) Validate() error {
	if iv.Start >= iv.End || iv.Start >= EndOfDay || iv.Start < 0 || iv.End > EndOfDay {
		return ErrInvalidInterval
	}
	return nil
}

// Contains reports whether the instant c falls inside the interval.
func (iv Interval) Contains(c Clock) bool {
	return iv.Start <= c && c < iv.End
}

// String renders the interval as "[HH:MM,HH:MM)".
func (iv Interval) String() string {
	return "[" + iv.Start.String() + "," + iv.End.String() + ")"
}

// Overlaps reports whether a and b share at least one instant.  Touching
// intervals (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// FindConflicts returns the indexes of every interval in existing that
// overlaps candidate, in input order.
func FindConflicts(candidate Interval, existing []Interval) []int {
	var out []int
	for i, iv := range existing {
		if Overlaps(candidate, iv) {
			out = append(out, i)
		}
	}
	return out
}

// Date is a civil calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses "YYYY-MM-DD".  Timestamps carrying a time part, as some
// drivers return for DATE columns, are accepted and truncated.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && (s[len(DateLayout)] == 'T' || s[len(DateLayout)] == ' ') {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MonthKey formats the year and month as "YYYY-MM".
func (d Date) MonthKey() string {
	return d.String()[:7]
}

// Time returns midnight of the date in UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts the date by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// AddMonths shifts the date by n months, normalising like time.AddDate.
func (d Date) AddMonths(n int) Date {
	return DateOf(d.Time().AddDate(0, n, 0))
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.String() < o.String()
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// MarshalText encodes the clock as "HH:MM".
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes "HH:MM" or "HH:MM:SS".
func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalText encodes the date as "YYYY-MM-DD".
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes "YYYY-MM-DD".
func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
