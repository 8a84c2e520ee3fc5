package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielpaulo/atrium-booking/internal/domain"
)

// Catalog is the read-only registry of bookable resources. It is external to
// the core; resources never change during a booking transaction.
type Catalog interface {
	GetResource(ctx context.Context, id uuid.UUID) (domain.Resource, error)
}

// Event is an outward-facing notification recorded transactionally with the
// write that produced it and published asynchronously by the outbox worker.
// Emission is fire-and-forget and never fails a core transaction.
type Event struct {
	ID          uuid.UUID
	Type        string
	AggregateID uuid.UUID
	Payload     []byte
}

// Store is the mutable shared state of the core: the reservation ledger, the
// hold store and the recurring block rules, all partitioned by
// (resource, date).
//
// WithTx runs fn as a single atomic unit with respect to every concurrent
// invocation touching the same partition. Read-then-write sequences inside
// fn therefore see a consistent snapshot and either commit entirely or leave
// no trace.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	ListReservations(ctx context.Context, resourceID uuid.UUID, date time.Time) ([]domain.Reservation, error)
	// TryInsertReservation atomically re-checks the no-overlap and capacity
	// invariants against the current ledger and inserts only if the count of
	// overlapping reservations is still below capacity. Returns
	// domain.ErrConflict otherwise.
	TryInsertReservation(ctx context.Context, r domain.Reservation, capacity int) error

	GetHold(ctx context.Context, id uuid.UUID) (domain.Hold, error)
	ListHolds(ctx context.Context, resourceID uuid.UUID, date time.Time) ([]domain.Hold, error)
	InsertHold(ctx context.Context, h domain.Hold) error
	RefreshHold(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
	DeleteHold(ctx context.Context, id uuid.UUID) error

	ListBlocks(ctx context.Context, resourceID uuid.UUID, weekday time.Weekday) ([]domain.RecurringBlock, error)

	AppendEvent(ctx context.Context, ev Event) error
}
