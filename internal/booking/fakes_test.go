package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielpaulo/atrium-booking/internal/domain"
)

// movableClock lets a test jump forward without sleeping.
type movableClock struct {
	now time.Time
}

func (c *movableClock) Now() time.Time { return c.now }

func (c *movableClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeCatalog struct {
	resources map[uuid.UUID]domain.Resource
}

func newFakeCatalog(resources ...domain.Resource) *fakeCatalog {
	m := make(map[uuid.UUID]domain.Resource, len(resources))
	for _, r := range resources {
		m[r.ID] = r
	}
	return &fakeCatalog{resources: m}
}

func (f *fakeCatalog) GetResource(_ context.Context, id uuid.UUID) (domain.Resource, error) {
	r, ok := f.resources[id]
	if !ok {
		return domain.Resource{}, domain.ErrNotFound
	}
	return r, nil
}

// fakeStore keeps everything in memory and runs WithTx callbacks inline. Tests
// drive concurrency scenarios by interleaving calls, not goroutines.
type fakeStore struct {
	reservations []domain.Reservation
	holds        map[uuid.UUID]domain.Hold
	blocks       []domain.RecurringBlock
	events       []Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{holds: make(map[uuid.UUID]domain.Hold)}
}

// WithTx mirrors the real store's semantics: a failed callback leaves no
// trace, so tests see rollback exactly like production does.
func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := f.clone()
	if err := fn(ctx); err != nil {
		f.reservations = snapshot.reservations
		f.holds = snapshot.holds
		f.blocks = snapshot.blocks
		f.events = snapshot.events
		return err
	}
	return nil
}

func (f *fakeStore) clone() *fakeStore {
	c := &fakeStore{
		reservations: append([]domain.Reservation(nil), f.reservations...),
		holds:        make(map[uuid.UUID]domain.Hold, len(f.holds)),
		blocks:       append([]domain.RecurringBlock(nil), f.blocks...),
		events:       append([]Event(nil), f.events...),
	}
	for id, h := range f.holds {
		c.holds[id] = h
	}
	return c
}

func (f *fakeStore) ListReservations(_ context.Context, resourceID uuid.UUID, date time.Time) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.reservations {
		if r.ResourceID == resourceID && r.Interval.Date.Equal(domain.Midnight(date)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) TryInsertReservation(ctx context.Context, r domain.Reservation, capacity int) error {
	existing, _ := f.ListReservations(ctx, r.ResourceID, r.Interval.Date)
	overlapping := 0
	for _, other := range existing {
		if other.Interval.Overlaps(r.Interval) {
			overlapping++
		}
	}
	if overlapping >= capacity {
		return domain.ErrConflict
	}
	f.reservations = append(f.reservations, r)
	return nil
}

func (f *fakeStore) GetHold(_ context.Context, id uuid.UUID) (domain.Hold, error) {
	h, ok := f.holds[id]
	if !ok {
		return domain.Hold{}, domain.ErrNotFound
	}
	return h, nil
}

func (f *fakeStore) ListHolds(_ context.Context, resourceID uuid.UUID, date time.Time) ([]domain.Hold, error) {
	var out []domain.Hold
	for _, h := range f.holds {
		if h.ResourceID == resourceID && h.Interval.Date.Equal(domain.Midnight(date)) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertHold(_ context.Context, h domain.Hold) error {
	f.holds[h.ID] = h
	return nil
}

func (f *fakeStore) RefreshHold(_ context.Context, id uuid.UUID, expiresAt time.Time) error {
	h, ok := f.holds[id]
	if !ok {
		return domain.ErrNotFound
	}
	h.ExpiresAt = expiresAt
	f.holds[id] = h
	return nil
}

func (f *fakeStore) DeleteHold(_ context.Context, id uuid.UUID) error {
	if _, ok := f.holds[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.holds, id)
	return nil
}

func (f *fakeStore) ListBlocks(_ context.Context, resourceID uuid.UUID, weekday time.Weekday) ([]domain.RecurringBlock, error) {
	var out []domain.RecurringBlock
	for _, b := range f.blocks {
		if b.ResourceID == resourceID && b.Weekday == weekday {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendEvent(_ context.Context, ev Event) error {
	f.events = append(f.events, ev)
	return nil
}
