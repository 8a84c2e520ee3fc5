package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gabrielpaulo/atrium-booking/internal/domain"
)

func (s *Store) ListBlocks(ctx context.Context, resourceID uuid.UUID, weekday time.Weekday) ([]domain.RecurringBlock, error) {
	rows, err := s.db(ctx).Query(ctx, `
		SELECT id, resource_id, weekday, start_min, end_min
		FROM recurring_blocks
		WHERE resource_id = $1 AND weekday = $2
	`, resourceID, int(weekday))
	if err != nil {
		return nil, errors.Wrap(err, "list blocks")
	}
	defer rows.Close()

	var out []domain.RecurringBlock
	for rows.Next() {
		var b domain.RecurringBlock
		var wd int
		if err := rows.Scan(&b.ID, &b.ResourceID, &wd, &b.Start, &b.End); err != nil {
			return nil, err
		}
		b.Weekday = time.Weekday(wd)
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBlock inserts an administrative blackout rule. An exact duplicate
// (same resource, weekday, start, end) is accepted idempotently and leaves
// the existing rule in place.
func (s *Store) CreateBlock(ctx context.Context, b domain.RecurringBlock) error {
	_, err := s.db(ctx).Exec(ctx, `
		INSERT INTO recurring_blocks (id, resource_id, weekday, start_min, end_min)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (resource_id, weekday, start_min, end_min) DO NOTHING
	`, b.ID, b.ResourceID, int(b.Weekday), b.Start, b.End)
	return errors.Wrap(err, "create block")
}

func (s *Store) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	result, err := s.db(ctx).Exec(ctx, `
		DELETE FROM recurring_blocks WHERE id = $1
	`, id)
	if err != nil {
		return errors.Wrap(err, "delete block")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
