package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecurringBlock is an administrator-defined blackout window that repeats
// every week on one weekday. It permanently shadows holds and reservations;
// there is no expiry.
type RecurringBlock struct {
	ID         uuid.UUID
	ResourceID uuid.UUID
	Weekday    time.Weekday
	Start      int
	End        int
}

// Shadows reports whether the block covers any part of the interval on the
// matching weekday.
func (b RecurringBlock) Shadows(iv Interval) bool {
	if iv.Weekday() != b.Weekday {
		return false
	}
	return max(iv.Start, b.Start) < min(iv.End, b.End)
}
