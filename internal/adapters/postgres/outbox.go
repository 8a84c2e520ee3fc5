package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gabrielpaulo/atrium-booking/internal/booking"
)

// OutboxRecord is one event awaiting publication, written in the same
// transaction as the state change that produced it.
type OutboxRecord struct {
	ID          uuid.UUID
	EventType   string
	AggregateID uuid.UUID
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
	Status      string // NEW, PUBLISHED
}

// AppendEvent implements the booking store's transactional event hook.
func (s *Store) AppendEvent(ctx context.Context, ev booking.Event) error {
	_, err := s.db(ctx).Exec(ctx, `
		INSERT INTO outbox (id, event_type, aggregate_id, payload_json, status)
		VALUES ($1, $2, $3, $4, 'NEW')
	`, ev.ID, ev.Type, ev.AggregateID, ev.Payload)
	return errors.Wrap(err, "append event")
}

func (s *Store) GetUnpublishedOutbox(ctx context.Context, limit int) ([]OutboxRecord, error) {
	rows, err := s.db(ctx).Query(ctx, `
		SELECT id, event_type, aggregate_id, payload_json, created_at, published_at, status
		FROM outbox WHERE status = 'NEW'
		ORDER BY created_at ASC LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "get unpublished outbox")
	}
	defer rows.Close()

	var records []OutboxRecord
	for rows.Next() {
		var rec OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.EventType, &rec.AggregateID, &rec.Payload, &rec.CreatedAt, &rec.PublishedAt, &rec.Status); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	_, err := s.db(ctx).Exec(ctx, `
		UPDATE outbox SET status = 'PUBLISHED', published_at = $2 WHERE id = $1
	`, id, publishedAt)
	return errors.Wrap(err, "mark published")
}
