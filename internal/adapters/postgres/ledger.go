package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gabrielpaulo/atrium-booking/internal/domain"
)

func (s *Store) ListReservations(ctx context.Context, resourceID uuid.UUID, date time.Time) ([]domain.Reservation, error) {
	rows, err := s.db(ctx).Query(ctx, `
		SELECT id, resource_id, date, start_min, end_min, holder_id, price, is_paid, created_at
		FROM reservations
		WHERE resource_id = $1 AND date = $2
	`, resourceID, domain.Midnight(date))
	if err != nil {
		return nil, errors.Wrap(err, "list reservations")
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		var r domain.Reservation
		var day time.Time
		if err := rows.Scan(&r.ID, &r.ResourceID, &day, &r.Interval.Start, &r.Interval.End, &r.HolderID, &r.Price, &r.IsPaid, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Interval.Date = domain.Midnight(day)
		out = append(out, r)
	}
	return out, rows.Err()
}

// TryInsertReservation is the ledger's atomic check-and-insert: the overlap
// count and the insert run as one statement, so concurrent confirms on the
// same partition cannot both slip under the capacity limit.
func (s *Store) TryInsertReservation(ctx context.Context, r domain.Reservation, capacity int) error {
	result, err := s.db(ctx).Exec(ctx, `
		INSERT INTO reservations (id, resource_id, date, start_min, end_min, holder_id, price, is_paid, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, false, $8
		WHERE (
			SELECT COUNT(*) FROM reservations
			WHERE resource_id = $2 AND date = $3 AND start_min < $5 AND end_min > $4
		) < $9
	`, r.ID, r.ResourceID, r.Interval.Date, r.Interval.Start, r.Interval.End, r.HolderID, r.Price, r.CreatedAt, capacity)
	if err != nil {
		return errors.Wrap(err, "insert reservation")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// MarkPaid flips the is_paid flag, the only mutation a reservation admits
// after creation. Called from the billing callback.
func (s *Store) MarkPaid(ctx context.Context, reservationID uuid.UUID) error {
	result, err := s.db(ctx).Exec(ctx, `
		UPDATE reservations SET is_paid = true WHERE id = $1
	`, reservationID)
	if err != nil {
		return errors.Wrap(err, "mark paid")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
