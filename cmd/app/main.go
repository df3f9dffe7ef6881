package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/strandline/ferrybooking/config"
	"github.com/strandline/ferrybooking/internal/bootstrap"
	"github.com/strandline/ferrybooking/internal/cache"
	"github.com/strandline/ferrybooking/internal/kafka"
	"github.com/strandline/ferrybooking/internal/repository"
	"github.com/strandline/ferrybooking/internal/service/booking"
	"github.com/strandline/ferrybooking/internal/service/sailings"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.SailingCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	sailingRepo := repository.NewSailingRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	vehicleRepo := repository.NewVehicleRepository(pool)

	sailingService := sailings.NewSailingService(sailingRepo, redisCache)
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

	if err := bootstrap.Run(ctx, cfg, sailingService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
