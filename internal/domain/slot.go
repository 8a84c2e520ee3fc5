package domain

import "github.com/google/uuid"

// SlotStatus is the authoritative availability of one candidate slot.
// Precedence is fixed: blocked > reserved > held > available.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotHeld      SlotStatus = "held"
	SlotReserved  SlotStatus = "reserved"
	SlotBlocked   SlotStatus = "blocked"
)

// Slot is a candidate bookable window with its computed status. HolderID is
// set only for reserved slots so the caller can show who has the booking.
type Slot struct {
	Interval Interval
	Status   SlotStatus
	HolderID uuid.UUID
}
