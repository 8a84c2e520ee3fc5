package domain

import (
	"fmt"
	"time"
)

// Interval is a half-open [Start,End) range within a single day. Start and
// End are minutes from midnight, so 07:00 is 420 and 22:00 is 1320.
type Interval struct {
	Date  time.Time
	Start int
	End   int
}

// NewInterval normalizes the date to midnight UTC and rejects empty or
// out-of-day ranges.
func NewInterval(date time.Time, start, end int) (Interval, error) {
	if start < 0 || end > 24*60 || end <= start {
		return Interval{}, ErrInvalidInput
	}
	return Interval{Date: Midnight(date), Start: start, End: end}, nil
}

func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether two intervals share at least one instant.
// End instants are excluded, so back-to-back slots never overlap.
func (iv Interval) Overlaps(other Interval) bool {
	if !iv.Date.Equal(other.Date) {
		return false
	}
	return max(iv.Start, other.Start) < min(iv.End, other.End)
}

func (iv Interval) Equal(other Interval) bool {
	return iv.Date.Equal(other.Date) && iv.Start == other.Start && iv.End == other.End
}

func (iv Interval) Weekday() time.Weekday { return iv.Date.Weekday() }

func (iv Interval) Minutes() int { return iv.End - iv.Start }

func (iv Interval) String() string {
	return fmt.Sprintf("%s %s-%s", iv.Date.Format("2006-01-02"), FormatClock(iv.Start), FormatClock(iv.End))
}

// ParseClock converts a wall-clock string like "07:00" to minutes from midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, ErrInvalidInput
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// DurationBucket classifies an interval's elapsed time for pricing.
type DurationBucket int

const (
	BucketShort DurationBucket = iota // fits a 1h15 window
	BucketLong                        // fits a 2h30 window
)

const (
	ShortSlotMinutes = 75
	LongSlotMinutes  = 150
)

// Bucket maps the interval's duration to a pricing bucket. Durations that fit
// no bucket are a validation error.
func (iv Interval) Bucket() (DurationBucket, error) {
	switch d := iv.Minutes(); {
	case d <= 0:
		return 0, ErrInvalidInput
	case d <= ShortSlotMinutes:
		return BucketShort, nil
	case d <= LongSlotMinutes:
		return BucketLong, nil
	default:
		return 0, ErrInvalidInput
	}
}
