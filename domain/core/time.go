package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp represents a point in time. On the wire it is an epoch-millisecond
// integer, matching the event format collaborators record doses and mood
// entries in; internally it is a time.Time.
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// FromUnixMilli creates a timestamp from epoch milliseconds
func FromUnixMilli(ms int64) Timestamp {
	return Timestamp(time.UnixMilli(ms).UTC())
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// UnixMilli returns the epoch-millisecond representation
func (t Timestamp) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// Add returns the timestamp shifted by d
func (t Timestamp) Add(d time.Duration) Timestamp {
	return Timestamp(time.Time(t).Add(d))
}

// HoursSince returns the signed number of hours elapsed since u
func (t Timestamp) HoursSince(u Timestamp) float64 {
	return time.Time(t).Sub(time.Time(u)).Hours()
}

// MarshalJSON emits epoch milliseconds
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

// UnmarshalJSON accepts epoch milliseconds or an RFC3339 string
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var tm time.Time
		if err := tm.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		*t = Timestamp(tm.UTC())
		return nil
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp: expected epoch milliseconds: %w", err)
	}
	*t = FromUnixMilli(ms)
	return nil
}

func (t Timestamp) String() string {
	return t.Time().UTC().Format(time.RFC3339)
}

// ParseTimestamp accepts the two recorded timestamp forms: an RFC3339 string
// or an epoch-millisecond integer.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, fmt.Errorf("timestamp: empty value")
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromUnixMilli(ms), nil
	}
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("timestamp: %q is neither RFC3339 nor epoch milliseconds", s)
	}
	return Timestamp(tm.UTC()), nil
}

// LagHours is a signed time offset in whole hours. Positive lag means the
// second series is measured that many hours after the first.
type LagHours int

// NewLagHours creates a lag from an hour count
func NewLagHours(h int) LagHours { return LagHours(h) }

// Duration returns the lag as a time.Duration
func (l LagHours) Duration() time.Duration { return time.Duration(l) * time.Hour }

// Hours returns the raw hour count
func (l LagHours) Hours() int { return int(l) }

func (l LagHours) String() string { return fmt.Sprintf("%dh", int(l)) }

// Window is a closed analysis interval [From, To]
type Window struct {
	From Timestamp `json:"from"`
	To   Timestamp `json:"to"`
}

// NewWindowEnding builds a window of the given day count ending at end
func NewWindowEnding(end Timestamp, days int) Window {
	if days <= 0 {
		days = 1
	}
	return Window{
		From: end.Add(-time.Duration(days) * 24 * time.Hour),
		To:   end,
	}
}

// Contains reports whether t falls inside the window (inclusive)
func (w Window) Contains(t Timestamp) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Days returns the window span in whole days, rounded down
func (w Window) Days() int {
	return int(w.To.Time().Sub(w.From.Time()).Hours() / 24)
}

// IsValid reports whether the window is non-empty and ordered
func (w Window) IsValid() bool {
	return !w.From.IsZero() && !w.To.IsZero() && w.From.Before(w.To)
}
