package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gabrielpaulo/atrium-booking/internal/clock"
	"github.com/gabrielpaulo/atrium-booking/internal/domain"
)

// StatusService merges recurring blocks, the reservation ledger and active
// holds into a per-slot availability status for one resource and date.
type StatusService struct {
	catalog Catalog
	store   Store
	clock   clock.Clock
}

func NewStatusService(catalog Catalog, store Store, clk clock.Clock) *StatusService {
	return &StatusService{catalog: catalog, store: store, clock: clk}
}

// SlotStatus computes the status of every slot in the resource's menu for the
// given date. Precedence is fixed (blocked > reserved > held > available) and
// the result does not depend on the enumeration order of the underlying rows.
func (s *StatusService) SlotStatus(ctx context.Context, resourceID uuid.UUID, date time.Time) ([]domain.Slot, error) {
	res, err := s.catalog.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !res.Active {
		return nil, domain.ErrNotFound
	}

	day := domain.Midnight(date)
	var (
		blocks       []domain.RecurringBlock
		reservations []domain.Reservation
		holds        []domain.Hold
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blocks, err = s.store.ListBlocks(gctx, resourceID, day.Weekday())
		return err
	})
	g.Go(func() error {
		var err error
		reservations, err = s.store.ListReservations(gctx, resourceID, day)
		return err
	})
	g.Go(func() error {
		var err error
		holds, err = s.store.ListHolds(gctx, resourceID, day)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	templates := domain.SlotTemplates(res, day)
	out := make([]domain.Slot, 0, len(templates))
	for _, iv := range templates {
		status, holder := slotStatus(res, iv, blocks, reservations, holds, now)
		out = append(out, domain.Slot{Interval: iv, Status: status, HolderID: holder})
	}
	return out, nil
}

func slotStatus(res domain.Resource, iv domain.Interval, blocks []domain.RecurringBlock, reservations []domain.Reservation, holds []domain.Hold, now time.Time) (domain.SlotStatus, uuid.UUID) {
	for _, b := range blocks {
		if b.Shadows(iv) {
			return domain.SlotBlocked, uuid.Nil
		}
	}
	reserved := overlappingReservations(reservations, iv)
	if reserved >= res.CapacityUnits {
		return domain.SlotReserved, displayHolder(reservations, iv)
	}
	if reserved+activeOverlappingHolds(holds, iv, now, uuid.Nil) >= res.CapacityUnits {
		return domain.SlotHeld, uuid.Nil
	}
	return domain.SlotAvailable, uuid.Nil
}

// displayHolder picks the holder shown on a reserved slot. Earliest start
// wins, ties broken by reservation id, so the choice is deterministic no
// matter how the ledger enumerates rows.
func displayHolder(reservations []domain.Reservation, iv domain.Interval) uuid.UUID {
	var best *domain.Reservation
	for i := range reservations {
		r := &reservations[i]
		if !r.Interval.Overlaps(iv) {
			continue
		}
		if best == nil ||
			r.Interval.Start < best.Interval.Start ||
			(r.Interval.Start == best.Interval.Start && r.ID.String() < best.ID.String()) {
			best = r
		}
	}
	if best == nil {
		return uuid.Nil
	}
	return best.HolderID
}
