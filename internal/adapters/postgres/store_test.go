package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gabrielpaulo/atrium-booking/internal/adapters/postgres"
	"github.com/gabrielpaulo/atrium-booking/internal/booking"
	"github.com/gabrielpaulo/atrium-booking/internal/clock"
	"github.com/gabrielpaulo/atrium-booking/internal/domain"
)

func startStore(t *testing.T) *postgres.Store {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:v24.1.1",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	dsn, err := container.Endpoint(ctx, "postgresql")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, dsn+"/defaultdb?sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	store := postgres.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestStore_TryInsertReservation(t *testing.T) {
	ctx := context.Background()
	store := startStore(t)

	resourceID := uuid.New()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	iv, _ := domain.NewInterval(day, 420, 570)

	first := domain.Reservation{
		ID: uuid.New(), ResourceID: resourceID, Interval: iv,
		HolderID: uuid.New(), Price: 90, CreatedAt: time.Now().UTC(),
	}
	if err := store.TryInsertReservation(ctx, first, 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	overlapping := domain.Reservation{
		ID: uuid.New(), ResourceID: resourceID, Interval: iv,
		HolderID: uuid.New(), Price: 90, CreatedAt: time.Now().UTC(),
	}
	if err := store.TryInsertReservation(ctx, overlapping, 1); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}

	// A second unit of capacity lets the same interval in once more.
	if err := store.TryInsertReservation(ctx, overlapping, 2); err != nil {
		t.Errorf("expected insert under capacity 2, got %v", err)
	}

	adjacent, _ := domain.NewInterval(day, 570, 720)
	third := domain.Reservation{
		ID: uuid.New(), ResourceID: resourceID, Interval: adjacent,
		HolderID: uuid.New(), Price: 90, CreatedAt: time.Now().UTC(),
	}
	if err := store.TryInsertReservation(ctx, third, 1); err != nil {
		t.Errorf("adjacent interval must not conflict, got %v", err)
	}

	got, err := store.ListReservations(ctx, resourceID, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 reservations, got %d", len(got))
	}
	for _, r := range got {
		if r.IsPaid {
			t.Errorf("reservation %s must start unpaid", r.ID)
		}
	}
}

func TestStore_HoldLifecycle(t *testing.T) {
	ctx := context.Background()
	store := startStore(t)

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	iv, _ := domain.NewInterval(day, 420, 570)
	now := time.Now().UTC().Truncate(time.Microsecond)

	hold := domain.Hold{
		ID: uuid.New(), ResourceID: uuid.New(), Interval: iv,
		HolderID: uuid.New(), CreatedAt: now, ExpiresAt: now.Add(5 * time.Minute),
	}
	if err := store.InsertHold(ctx, hold); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetHold(ctx, hold.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Interval.Equal(iv) || got.HolderID != hold.HolderID {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	newExpiry := now.Add(10 * time.Minute)
	if err := store.RefreshHold(ctx, hold.ID, newExpiry); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetHold(ctx, hold.ID)
	if !got.ExpiresAt.Equal(newExpiry) {
		t.Fatalf("expected refreshed expiry %v, got %v", newExpiry, got.ExpiresAt)
	}

	swept, err := store.DeleteExpiredHolds(ctx, newExpiry.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if len(swept) != 1 || swept[0].ID != hold.ID {
		t.Fatalf("expected the hold to be swept, got %v", swept)
	}
	if _, err := store.GetHold(ctx, hold.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after sweep, got %v", err)
	}

	if err := store.DeleteHold(ctx, hold.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

// stubCatalog serves one fixed resource, so the coordinator can run against
// the real store without a mongo container.
type stubCatalog struct {
	res domain.Resource
}

func (c stubCatalog) GetResource(_ context.Context, id uuid.UUID) (domain.Resource, error) {
	if id != c.res.ID {
		return domain.Resource{}, domain.ErrNotFound
	}
	return c.res, nil
}

func TestCoordinator_ConcurrentDirectConfirm(t *testing.T) {
	ctx := context.Background()
	store := startStore(t)

	res := domain.Resource{
		ID:            uuid.New(),
		Kind:          domain.KindEquipment,
		Name:          "projector-pool",
		CapacityUnits: 2,
		Pricing:       domain.PricingRule{Daily: 30},
		Active:        true,
	}
	coord := booking.NewCoordinator(stubCatalog{res: res}, store, clock.NewSystem())

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	iv, _ := domain.NewInterval(day, domain.DayOpenMinutes, domain.DayCloseMinutes)

	const claimants = 8
	results := make(chan error, claimants)
	var wg sync.WaitGroup
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Serialization failures are retryable by contract; every
			// claimant retries until it wins or loses outright.
			for {
				_, err := coord.DirectConfirm(ctx, res.ID, iv, uuid.New())
				if errors.Is(err, domain.ErrSerializationFailure) {
					continue
				}
				results <- err
				return
			}
		}()
	}
	wg.Wait()
	close(results)

	won, lost := 0, 0
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrConflict):
			lost++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != res.CapacityUnits {
		t.Errorf("expected exactly %d winners, got %d", res.CapacityUnits, won)
	}
	if lost != claimants-res.CapacityUnits {
		t.Errorf("expected %d conflicts, got %d", claimants-res.CapacityUnits, lost)
	}

	ledger, err := store.ListReservations(ctx, res.ID, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(ledger) != res.CapacityUnits {
		t.Errorf("expected %d reservations in the ledger, got %d", res.CapacityUnits, len(ledger))
	}
}

func TestStore_Blocks(t *testing.T) {
	ctx := context.Background()
	store := startStore(t)

	block := domain.RecurringBlock{
		ID: uuid.New(), ResourceID: uuid.New(), Weekday: time.Monday, Start: 420, End: 570,
	}
	if err := store.CreateBlock(ctx, block); err != nil {
		t.Fatal(err)
	}

	// An exact duplicate with a fresh id is swallowed, not doubled.
	dup := block
	dup.ID = uuid.New()
	if err := store.CreateBlock(ctx, dup); err != nil {
		t.Fatal(err)
	}

	blocks, err := store.ListBlocks(ctx, block.ResourceID, time.Monday)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block after duplicate insert, got %d", len(blocks))
	}
	if blocks[0].ID != block.ID {
		t.Fatalf("duplicate must leave the original rule, got %v", blocks[0].ID)
	}

	if err := store.DeleteBlock(ctx, block.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteBlock(ctx, block.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
