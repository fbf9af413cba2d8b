// Package clock implements a wall-clock time of day on a 24 hour cycle.
// There are no dates or zones: adding past midnight wraps to the start of
// the day and subtracting past midnight wraps to the end.
package clock

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour
)

// Time is an immutable hour:minute value. The zero value is 00:00.
type Time struct {
	min int // minutes since midnight, always in [0, MinutesPerDay)
}

// New builds a Time from an hour and minute. Out of range parts wrap the
// same way Add does.
func New(hour, minute int) Time {
	return Time{}.Add(hour*MinutesPerHour + minute)
}

func (t Time) Hour() int   { return t.min / MinutesPerHour }
func (t Time) Minute() int { return t.min % MinutesPerHour }

// Add shifts t by a signed number of minutes, wrapping modulo one day.
func (t Time) Add(minutes int) Time {
	total := (t.min + minutes) % MinutesPerDay
	if total < 0 {
		total += MinutesPerDay
	}
	return Time{min: total}
}

func (t Time) Before(other Time) bool { return t.min < other.min }

func (t Time) After(other Time) bool { return !t.Before(other) && !t.Equal(other) }

func (t Time) Equal(other Time) bool { return t.min == other.min }

// MinutesUntil is the forward distance from t to other. When other is
// earlier in the day it is taken to be on the next day, so the result is
// always in [0, MinutesPerDay). It is not symmetric.
func (t Time) MinutesUntil(other Time) int {
	if t.min <= other.min {
		return other.min - t.min
	}
	return other.min + MinutesPerDay - t.min
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Parse reads an "HH:MM" value.
func Parse(s string) (Time, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Time{}, fmt.Errorf("clock: invalid time %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return Time{}, fmt.Errorf("clock: invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return Time{}, fmt.Errorf("clock: invalid minute in %q", s)
	}
	return New(hour, minute), nil
}

func (t Time) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Time) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
