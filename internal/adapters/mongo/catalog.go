package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gabrielpaulo/atrium-booking/internal/domain"
	"github.com/gabrielpaulo/atrium-booking/internal/observability"
)

// CatalogRepository reads the bookable resource registry. The catalog is
// managed by an administrative collaborator and is read-mostly from the
// core's perspective.
type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("resources"),
		logger: logger,
	}
}

type ResourceDoc struct {
	ID              uuid.UUID  `bson:"_id"`
	Kind            string     `bson:"kind"`
	Name            string     `bson:"name"`
	CapacityUnits   int        `bson:"capacity_units"`
	Pricing         PricingDoc `bson:"pricing"`
	AllowShortSlots bool       `bson:"allow_short_slots"`
	Active          bool       `bson:"active"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

type PricingDoc struct {
	ShortSlot float64 `bson:"short_slot"`
	LongSlot  float64 `bson:"long_slot"`
	Daily     float64 `bson:"daily"`
}

func (c *CatalogRepository) GetResource(ctx context.Context, id uuid.UUID) (domain.Resource, error) {
	var doc ResourceDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Resource{}, domain.ErrNotFound
	}
	if err != nil {
		c.logger.Error("failed to get resource", err)
		return domain.Resource{}, err
	}
	return doc.toDomain(), nil
}

// ListResources returns the active resources of one kind, used by the daily
// parking report.
func (c *CatalogRepository) ListResources(ctx context.Context, kind domain.ResourceKind) ([]domain.Resource, error) {
	cur, err := c.coll.Find(ctx, bson.M{"kind": string(kind), "active": true})
	if err != nil {
		c.logger.Error("failed to list resources", err)
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.Resource
	for cur.Next(ctx) {
		var doc ResourceDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

func (c *CatalogRepository) CreateResource(ctx context.Context, doc ResourceDoc) error {
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = time.Now()
	_, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		c.logger.Error("failed to create resource", err)
		return err
	}
	return nil
}

func (doc ResourceDoc) toDomain() domain.Resource {
	return domain.Resource{
		ID:            doc.ID,
		Kind:          domain.ResourceKind(doc.Kind),
		Name:          doc.Name,
		CapacityUnits: doc.CapacityUnits,
		Pricing: domain.PricingRule{
			ShortSlot: doc.Pricing.ShortSlot,
			LongSlot:  doc.Pricing.LongSlot,
			Daily:     doc.Pricing.Daily,
		},
		AllowShortSlots: doc.AllowShortSlots,
		Active:          doc.Active,
	}
}
