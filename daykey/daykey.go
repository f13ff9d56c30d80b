// Package daykey provides canonical local-calendar day keys.
//
// Every subsystem that stores or joins rows by calendar day (meal logging,
// the energy ledger) derives its keys through this package, so day
// boundaries always agree across the application.
package daykey

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Key is a calendar-day key in the caller's local calendar, formatted
// "2006-01-02". Keys compare correctly as strings because the layout is
// zero-padded, most-significant first.
type Key string

// Normalize converts an arbitrary instant to its local-calendar day key.
// A zero time normalizes to today.
func Normalize(t time.Time) Key {
	if t.IsZero() {
		return Today()
	}
	return Key(t.In(time.Local).Format(layout))
}

// Today returns the key for the current local day.
func Today() Key {
	return Key(time.Now().Format(layout))
}

// Parse validates a "2006-01-02" string and returns it as a Key.
func Parse(s string) (Key, error) {
	t, err := time.ParseInLocation(layout, s, time.Local)
	if err != nil {
		return "", fmt.Errorf("invalid day key %q (expected YYYY-MM-DD)", s)
	}
	return Normalize(t), nil
}

// Comparison
func (k Key) Before(other Key) bool { return k < other }
func (k Key) After(other Key) bool  { return k > other }
func (k Key) Equal(other Key) bool  { return k == other }
func (k Key) IsZero() bool          { return k == "" }

func (k Key) String() string { return string(k) }

// StartOfDay returns the first instant of the day in the local calendar.
func (k Key) StartOfDay() time.Time {
	t, _ := time.ParseInLocation(layout, string(k), time.Local)
	return t
}

// EndOfDay returns the last instant of the day in the local calendar.
// Historical lookups scoped to a day (e.g. the weight used for that day's
// estimate) are bounded by this instant, never by "now".
func (k Key) EndOfDay() time.Time {
	return k.StartOfDay().AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// AddDays returns the key n calendar days away.
func (k Key) AddDays(n int) Key {
	return Normalize(k.StartOfDay().AddDate(0, 0, n))
}
