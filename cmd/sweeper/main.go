package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"

	"github.com/gabrielpaulo/atrium-booking/internal/adapters/postgres"
	"github.com/gabrielpaulo/atrium-booking/internal/adapters/rabbit"
	redisadapter "github.com/gabrielpaulo/atrium-booking/internal/adapters/redis"
	"github.com/gabrielpaulo/atrium-booking/internal/booking"
	"github.com/gabrielpaulo/atrium-booking/internal/config"
	"github.com/gabrielpaulo/atrium-booking/internal/domain"
	"github.com/gabrielpaulo/atrium-booking/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger(cfg)

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	store := postgres.NewStore(pool)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	rabbitPub, err := rabbit.NewPublisher(conn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	sweeper := NewSweeper(store, redisCache, rabbitPub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sweeper.Run(ctx, time.Minute)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown sweeper")
}

// Sweeper is garbage collection for expired holds. Expiry is decided lazily at
// read time, so the sweep only reclaims rows and announces hold.expired; a
// stalled sweeper never blocks anyone from booking.
type Sweeper struct {
	store     *postgres.Store
	redis     *redisadapter.Cache
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewSweeper(store *postgres.Store, redis *redisadapter.Cache, rabbitPub *rabbit.Publisher, logger observability.Logger) *Sweeper {
	return &Sweeper{store: store, redis: redis, rabbitPub: rabbitPub, logger: logger}
}

func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			holds, err := s.store.DeleteExpiredHolds(ctx, now.UTC())
			if err != nil {
				s.logger.Error("failed to delete expired holds", err)
				continue
			}
			for _, hold := range holds {
				observability.HoldsExpiredTotal.Inc()
				if err := s.announceWithRetry(ctx, hold); err != nil {
					s.logger.WithField("hold_id", hold.ID).Error("failed to announce expired hold after retries", err)
				}
			}
		}
	}
}

func (s *Sweeper) announceWithRetry(ctx context.Context, hold domain.Hold) error {
	_ = s.redis.ReleaseSlotLock(ctx, hold.ResourceID.String(), hold.Interval)

	payload, _ := json.Marshal(map[string]interface{}{
		"hold_id":     hold.ID,
		"resource_id": hold.ResourceID,
		"holder_id":   hold.HolderID,
		"date":        hold.Interval.Date.Format("2006-01-02"),
		"start":       domain.FormatClock(hold.Interval.Start),
		"end":         domain.FormatClock(hold.Interval.End),
	})
	msg := amqp.Publishing{
		MessageId:   hold.ID.String(),
		ContentType: "application/json",
		Body:        payload,
	}

	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		if err := s.rabbitPub.Publish(ctx, booking.EventHoldExpired, msg); err != nil {
			backoff := time.Duration(1<<i) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("failed after %d retries", maxRetries)
}
