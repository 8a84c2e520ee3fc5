package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gabrielpaulo/atrium-booking/internal/observability"
)

// AuditLogger is the external audit collaborator: booking events land here as
// documents, consumed from the message bus by the notifier. The core never
// writes audit entries itself.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        uuid.UUID `bson:"_id"`
	EventType string    `bson:"event_type"`
	Timestamp time.Time `bson:"timestamp"`
	Payload   bson.M    `bson:"payload"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, eventType string, payload []byte) error {
	var data bson.M
	if err := bson.UnmarshalExtJSON(payload, true, &data); err != nil {
		data = bson.M{"raw": string(payload)}
	}
	doc := AuditLog{
		ID:        uuid.New(),
		EventType: eventType,
		Timestamp: time.Now(),
		Payload:   data,
	}
	if _, err := a.coll.InsertOne(ctx, doc); err != nil {
		a.logger.Error("failed to insert audit log", err)
		return err
	}
	return nil
}
