package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gabrielpaulo/atrium-booking/internal/domain"
)

func (s *Store) GetHold(ctx context.Context, id uuid.UUID) (domain.Hold, error) {
	var h domain.Hold
	var day time.Time
	err := s.db(ctx).QueryRow(ctx, `
		SELECT id, resource_id, date, start_min, end_min, holder_id, created_at, expires_at
		FROM holds WHERE id = $1
	`, id).Scan(&h.ID, &h.ResourceID, &day, &h.Interval.Start, &h.Interval.End, &h.HolderID, &h.CreatedAt, &h.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Hold{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Hold{}, errors.Wrap(err, "get hold")
	}
	h.Interval.Date = domain.Midnight(day)
	return h, nil
}

func (s *Store) ListHolds(ctx context.Context, resourceID uuid.UUID, date time.Time) ([]domain.Hold, error) {
	rows, err := s.db(ctx).Query(ctx, `
		SELECT id, resource_id, date, start_min, end_min, holder_id, created_at, expires_at
		FROM holds
		WHERE resource_id = $1 AND date = $2
	`, resourceID, domain.Midnight(date))
	if err != nil {
		return nil, errors.Wrap(err, "list holds")
	}
	defer rows.Close()

	var out []domain.Hold
	for rows.Next() {
		var h domain.Hold
		var day time.Time
		if err := rows.Scan(&h.ID, &h.ResourceID, &day, &h.Interval.Start, &h.Interval.End, &h.HolderID, &h.CreatedAt, &h.ExpiresAt); err != nil {
			return nil, err
		}
		h.Interval.Date = domain.Midnight(day)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) InsertHold(ctx context.Context, h domain.Hold) error {
	_, err := s.db(ctx).Exec(ctx, `
		INSERT INTO holds (id, resource_id, date, start_min, end_min, holder_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, h.ID, h.ResourceID, h.Interval.Date, h.Interval.Start, h.Interval.End, h.HolderID, h.CreatedAt, h.ExpiresAt)
	return errors.Wrap(err, "insert hold")
}

func (s *Store) RefreshHold(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	result, err := s.db(ctx).Exec(ctx, `
		UPDATE holds SET expires_at = $2 WHERE id = $1
	`, id, expiresAt)
	if err != nil {
		return errors.Wrap(err, "refresh hold")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteHold(ctx context.Context, id uuid.UUID) error {
	result, err := s.db(ctx).Exec(ctx, `
		DELETE FROM holds WHERE id = $1
	`, id)
	if err != nil {
		return errors.Wrap(err, "delete hold")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteExpiredHolds physically removes holds whose expiry has passed and
// returns them so the sweeper can emit hold.expired events. Correctness never
// depends on this running; expiry is evaluated lazily at read time.
func (s *Store) DeleteExpiredHolds(ctx context.Context, now time.Time) ([]domain.Hold, error) {
	rows, err := s.db(ctx).Query(ctx, `
		DELETE FROM holds WHERE expires_at <= $1
		RETURNING id, resource_id, date, start_min, end_min, holder_id, created_at, expires_at
	`, now)
	if err != nil {
		return nil, errors.Wrap(err, "delete expired holds")
	}
	defer rows.Close()

	var out []domain.Hold
	for rows.Next() {
		var h domain.Hold
		var day time.Time
		if err := rows.Scan(&h.ID, &h.ResourceID, &day, &h.Interval.Start, &h.Interval.End, &h.HolderID, &h.CreatedAt, &h.ExpiresAt); err != nil {
			return nil, err
		}
		h.Interval.Date = domain.Midnight(day)
		out = append(out, h)
	}
	return out, rows.Err()
}
