package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gabrielpaulo/atrium-booking/internal/adapters/postgres"
	"github.com/gabrielpaulo/atrium-booking/internal/adapters/rabbit"
	"github.com/gabrielpaulo/atrium-booking/internal/observability"
)

// Publisher drains the transactional outbox into RabbitMQ. Events are
// recorded with the booking write and delivered here asynchronously, so a
// broker outage can delay but never fail a core transaction.
type Publisher struct {
	store     *postgres.Store
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewPublisher(store *postgres.Store, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{store: store, rabbitPub: rabbitPub, logger: logger}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *Publisher) drain(ctx context.Context) {
	records, err := p.store.GetUnpublishedOutbox(ctx, 50)
	if err != nil {
		p.logger.Error("failed to read outbox", err)
		return
	}
	for _, rec := range records {
		observability.OutboxLag.Set(time.Since(rec.CreatedAt).Seconds())
		msg := amqp.Publishing{
			MessageId:   rec.ID.String(),
			ContentType: "application/json",
			Body:        rec.Payload,
		}
		if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
			p.logger.WithField("event_id", rec.ID).Error("failed to publish outbox record", err)
			continue
		}
		if err := p.store.MarkPublished(ctx, rec.ID, time.Now()); err != nil {
			p.logger.WithField("event_id", rec.ID).Error("failed to mark outbox record published", err)
		}
	}
	if len(records) == 0 {
		observability.OutboxLag.Set(0)
	}
}
