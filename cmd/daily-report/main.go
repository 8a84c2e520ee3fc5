package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoadapter "github.com/gabrielpaulo/atrium-booking/internal/adapters/mongo"
	"github.com/gabrielpaulo/atrium-booking/internal/adapters/postgres"
	"github.com/gabrielpaulo/atrium-booking/internal/adapters/rabbit"
	"github.com/gabrielpaulo/atrium-booking/internal/config"
	"github.com/gabrielpaulo/atrium-booking/internal/domain"
	"github.com/gabrielpaulo/atrium-booking/internal/observability"
)

// One-shot roster of tomorrow's parking assignments, published to the bus for
// the front desk. Meant to run from cron shortly before midnight.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger(cfg)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	catalog := mongoadapter.NewCatalogRepository(mongoClient.Database("atrium"), logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	rabbitPub, err := rabbit.NewPublisher(conn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	tomorrow := domain.Midnight(time.Now().UTC().AddDate(0, 0, 1))

	spots, err := catalog.ListResources(ctx, domain.KindParking)
	if err != nil {
		log.Fatalf("failed to list parking spots: %v", err)
	}

	var lines []string
	assigned := 0
	for _, spot := range spots {
		reservations, err := store.ListReservations(ctx, spot.ID, tomorrow)
		if err != nil {
			log.Fatalf("failed to list reservations: %v", err)
		}
		if len(reservations) == 0 {
			lines = append(lines, fmt.Sprintf("%s: free", spot.Name))
			continue
		}
		assigned++
		lines = append(lines, fmt.Sprintf("%s: holder %s", spot.Name, reservations[0].HolderID))
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"date":     tomorrow.Format("2006-01-02"),
		"total":    len(spots),
		"assigned": assigned,
		"roster":   strings.Join(lines, "\n"),
	})
	msg := amqp.Publishing{
		MessageId:   fmt.Sprintf("parking-report-%s", tomorrow.Format("2006-01-02")),
		ContentType: "application/json",
		Body:        payload,
	}
	if err := rabbitPub.Publish(ctx, "report.parking.daily", msg); err != nil {
		log.Fatalf("failed to publish report: %v", err)
	}

	logger.WithField("date", tomorrow.Format("2006-01-02")).Info("parking report published")
}
