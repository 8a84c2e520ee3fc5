package booking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gabrielpaulo/atrium-booking/internal/clock"
	"github.com/gabrielpaulo/atrium-booking/internal/domain"
)

const (
	EventReservationCreated = "reservation.created"
	EventHoldExpired        = "hold.expired"
	EventReservationPaid    = "reservation.paid"
)

const defaultHoldTTL = 5 * time.Minute

// Coordinator owns the two-phase booking flow: create hold, then confirm into
// the ledger or release. It is the only write path into the hold store and
// the reservation ledger. Every operation re-checks the invariants at write
// time inside one store transaction; among concurrent claimants of the same
// slot, exactly one wins per unit of capacity and the rest get ErrConflict.
type Coordinator struct {
	catalog Catalog
	store   Store
	clock   clock.Clock
	holdTTL time.Duration
}

func NewCoordinator(catalog Catalog, store Store, clk clock.Clock, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		catalog: catalog,
		store:   store,
		clock:   clk,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type CoordinatorOption func(*Coordinator)

// WithHoldTTL overrides the default 5 minute hold lifetime.
func WithHoldTTL(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.holdTTL = d
		}
	}
}

// HoldTTL reports the configured hold lifetime.
func (c *Coordinator) HoldTTL() time.Duration { return c.holdTTL }

// RequestHold claims a resource interval for holderID until the TTL runs out.
// Re-requesting the same holder+resource+interval while the previous hold is
// still active refreshes its expiry instead of creating a duplicate.
func (c *Coordinator) RequestHold(ctx context.Context, resourceID uuid.UUID, iv domain.Interval, holderID uuid.UUID) (domain.Hold, error) {
	if holderID == uuid.Nil {
		return domain.Hold{}, domain.ErrInvalidInput
	}
	res, err := c.resource(ctx, resourceID)
	if err != nil {
		return domain.Hold{}, err
	}
	if err := res.ValidateInterval(iv); err != nil {
		return domain.Hold{}, err
	}

	now := c.clock.Now()
	var out domain.Hold
	err = c.store.WithTx(ctx, func(ctx context.Context) error {
		if err := c.checkBlocks(ctx, resourceID, iv); err != nil {
			return err
		}

		holds, err := c.store.ListHolds(ctx, resourceID, iv.Date)
		if err != nil {
			return err
		}
		for _, h := range holds {
			if h.HolderID == holderID && h.Interval.Equal(iv) && h.Active(now) {
				h.ExpiresAt = now.Add(c.holdTTL)
				if err := c.store.RefreshHold(ctx, h.ID, h.ExpiresAt); err != nil {
					return err
				}
				out = h
				return nil
			}
		}

		reservations, err := c.store.ListReservations(ctx, resourceID, iv.Date)
		if err != nil {
			return err
		}
		// Only other holders' claims bar the request; a holder's own
		// overlapping holds never conflict with themselves.
		claimed := overlappingReservations(reservations, iv) + activeOverlappingHolds(holds, iv, now, holderID)
		if claimed >= res.CapacityUnits {
			return domain.ErrConflict
		}

		out = domain.NewHold(resourceID, iv, holderID, now, c.holdTTL)
		return c.store.InsertHold(ctx, out)
	})
	if err != nil {
		return domain.Hold{}, err
	}
	return out, nil
}

// Confirm turns a live hold into a reservation. The ledger insert, the hold
// deletion and the outbox record commit as one all-or-nothing step. A
// conflict from the ledger means a reservation got in through another path;
// the hold is moot and gets dropped in a follow-up write, since the conflict
// aborts the transaction and would take an in-transaction delete down with it.
func (c *Coordinator) Confirm(ctx context.Context, holdID, holderID uuid.UUID) (domain.Reservation, error) {
	now := c.clock.Now()
	var out domain.Reservation
	var mootHold uuid.UUID
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		h, err := c.store.GetHold(ctx, holdID)
		if err != nil {
			return err
		}
		if h.HolderID != holderID {
			return domain.ErrForbidden
		}
		if !h.Active(now) {
			return domain.ErrHoldExpired
		}

		res, err := c.resource(ctx, h.ResourceID)
		if err != nil {
			return err
		}
		if err := c.checkBlocks(ctx, h.ResourceID, h.Interval); err != nil {
			return err
		}

		price, err := res.PriceFor(h.Interval)
		if err != nil {
			return err
		}
		out = domain.Reservation{
			ID:         uuid.New(),
			ResourceID: h.ResourceID,
			Interval:   h.Interval,
			HolderID:   h.HolderID,
			Price:      price,
			CreatedAt:  now,
		}

		capacity, err := c.capacityMinusForeignHolds(ctx, res, h.Interval, now, holderID)
		if err != nil {
			return err
		}
		if err := c.store.TryInsertReservation(ctx, out, capacity); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				mootHold = h.ID
			}
			return err
		}
		if err := c.store.DeleteHold(ctx, h.ID); err != nil {
			return err
		}
		return c.appendReservationCreated(ctx, out)
	})
	if err != nil {
		if mootHold != uuid.Nil {
			_ = c.store.DeleteHold(ctx, mootHold)
		}
		return domain.Reservation{}, err
	}
	return out, nil
}

// Release removes a hold before confirmation. Only the holder may release;
// an already expired hold is reported as absent.
func (c *Coordinator) Release(ctx context.Context, holdID, holderID uuid.UUID) error {
	now := c.clock.Now()
	return c.store.WithTx(ctx, func(ctx context.Context) error {
		h, err := c.store.GetHold(ctx, holdID)
		if err != nil {
			return err
		}
		if h.HolderID != holderID {
			return domain.ErrForbidden
		}
		if !h.Active(now) {
			return domain.ErrNotFound
		}
		return c.store.DeleteHold(ctx, h.ID)
	})
}

// DirectConfirm books without the hold phase, for callers that accept the
// higher conflict rate under contention. It runs the same block, hold and
// ledger checks before inserting.
func (c *Coordinator) DirectConfirm(ctx context.Context, resourceID uuid.UUID, iv domain.Interval, holderID uuid.UUID) (domain.Reservation, error) {
	if holderID == uuid.Nil {
		return domain.Reservation{}, domain.ErrInvalidInput
	}
	res, err := c.resource(ctx, resourceID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if err := res.ValidateInterval(iv); err != nil {
		return domain.Reservation{}, err
	}

	now := c.clock.Now()
	var out domain.Reservation
	err = c.store.WithTx(ctx, func(ctx context.Context) error {
		if err := c.checkBlocks(ctx, resourceID, iv); err != nil {
			return err
		}
		price, err := res.PriceFor(iv)
		if err != nil {
			return err
		}
		out = domain.Reservation{
			ID:         uuid.New(),
			ResourceID: resourceID,
			Interval:   iv,
			HolderID:   holderID,
			Price:      price,
			CreatedAt:  now,
		}
		capacity, err := c.capacityMinusForeignHolds(ctx, res, iv, now, holderID)
		if err != nil {
			return err
		}
		if err := c.store.TryInsertReservation(ctx, out, capacity); err != nil {
			return err
		}
		return c.appendReservationCreated(ctx, out)
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

func (c *Coordinator) resource(ctx context.Context, id uuid.UUID) (domain.Resource, error) {
	res, err := c.catalog.GetResource(ctx, id)
	if err != nil {
		return domain.Resource{}, err
	}
	if !res.Active {
		return domain.Resource{}, domain.ErrNotFound
	}
	return res, nil
}

func (c *Coordinator) checkBlocks(ctx context.Context, resourceID uuid.UUID, iv domain.Interval) error {
	blocks, err := c.store.ListBlocks(ctx, resourceID, iv.Weekday())
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if b.Shadows(iv) {
			return domain.ErrConflict
		}
	}
	return nil
}

// capacityMinusForeignHolds reduces the resource capacity by the active holds
// of other holders, so a reservation can never land on top of someone else's
// unexpired hold and pooled capacity counts holds and reservations uniformly.
func (c *Coordinator) capacityMinusForeignHolds(ctx context.Context, res domain.Resource, iv domain.Interval, now time.Time, holderID uuid.UUID) (int, error) {
	holds, err := c.store.ListHolds(ctx, res.ID, iv.Date)
	if err != nil {
		return 0, err
	}
	capacity := res.CapacityUnits - activeOverlappingHolds(holds, iv, now, holderID)
	if capacity <= 0 {
		return 0, domain.ErrConflict
	}
	return capacity, nil
}

func (c *Coordinator) appendReservationCreated(ctx context.Context, r domain.Reservation) error {
	payload, err := json.Marshal(map[string]any{
		"reservation_id": r.ID,
		"resource_id":    r.ResourceID,
		"holder_id":      r.HolderID,
		"date":           r.Interval.Date.Format("2006-01-02"),
		"start":          domain.FormatClock(r.Interval.Start),
		"end":            domain.FormatClock(r.Interval.End),
		"price":          r.Price,
	})
	if err != nil {
		return err
	}
	return c.store.AppendEvent(ctx, Event{
		ID:          uuid.New(),
		Type:        EventReservationCreated,
		AggregateID: r.ID,
		Payload:     payload,
	})
}

func overlappingReservations(reservations []domain.Reservation, iv domain.Interval) int {
	n := 0
	for _, r := range reservations {
		if r.Interval.Overlaps(iv) {
			n++
		}
	}
	return n
}

// activeOverlappingHolds counts unexpired holds overlapping iv, skipping the
// ones owned by exclude (pass uuid.Nil to count everyone's).
func activeOverlappingHolds(holds []domain.Hold, iv domain.Interval, now time.Time, exclude uuid.UUID) int {
	n := 0
	for _, h := range holds {
		if h.HolderID == exclude {
			continue
		}
		if h.Active(now) && h.Interval.Overlaps(iv) {
			n++
		}
	}
	return n
}
