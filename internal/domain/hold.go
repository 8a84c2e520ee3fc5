package domain

import (
	"time"

	"github.com/google/uuid"
)

// Hold is a short-lived advisory claim on a resource interval. It keeps the
// slot off the market while the holder finishes the booking round-trip.
type Hold struct {
	ID         uuid.UUID
	ResourceID uuid.UUID
	Interval   Interval
	HolderID   uuid.UUID
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

func NewHold(resourceID uuid.UUID, iv Interval, holderID uuid.UUID, now time.Time, ttl time.Duration) Hold {
	return Hold{
		ID:         uuid.New(),
		ResourceID: resourceID,
		Interval:   iv,
		HolderID:   holderID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

// Active reports whether the hold still counts for availability. Expiry is
// lazy: once now >= ExpiresAt the hold is equivalent to absence even if the
// row has not been swept yet.
func (h Hold) Active(now time.Time) bool {
	return now.Before(h.ExpiresAt)
}
