package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is a confirmed, durable booking. It is terminal once created;
// only the IsPaid flag changes afterwards, flipped by the billing callback.
type Reservation struct {
	ID         uuid.UUID
	ResourceID uuid.UUID
	Interval   Interval
	HolderID   uuid.UUID
	Price      float64
	IsPaid     bool
	CreatedAt  time.Time
}
