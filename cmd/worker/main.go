package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/strandline/ferrybooking/config"
	"github.com/strandline/ferrybooking/internal/cache"
	"github.com/strandline/ferrybooking/internal/email"
	"github.com/strandline/ferrybooking/internal/kafka"
	"github.com/strandline/ferrybooking/internal/repository"
	"github.com/strandline/ferrybooking/internal/service/booking"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.SailingCacheTTLSeconds)*time.Second)

	sailingRepo := repository.NewSailingRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	vehicleRepo := repository.NewVehicleRepository(pool)
	bookingService := booking.NewBookingService(
		bookingRepo,
		sailingRepo,
		customerRepo,
		vehicleRepo,
		redisCache,
		producer,
		cfg.Kafka.AuditTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.NotificationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode notification error: %v", err)
				return nil
			}
			return emailSender.Send(ctx, event)
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepEvery := time.Duration(cfg.Worker.ReviewSweepMinutes) * time.Minute
	if sweepEvery <= 0 {
		sweepEvery = 5 * time.Minute
	}
	sweepTicker := time.NewTicker(sweepEvery)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			processed, err := bookingService.SweepOverdueReviews(ctx)
			if err != nil {
				log.Printf("sweep overdue reviews error: %v", err)
				continue
			}
			if processed > 0 {
				log.Printf("auto-approved %d overdue reviews", processed)
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
