package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vkazmir/flightdesk/config"
	"github.com/vkazmir/flightdesk/internal/bootstrap"
	"github.com/vkazmir/flightdesk/internal/cache"
	"github.com/vkazmir/flightdesk/internal/kafka"
	"github.com/vkazmir/flightdesk/internal/logging"
	"github.com/vkazmir/flightdesk/internal/repository"
	"github.com/vkazmir/flightdesk/internal/service/booking"
	"github.com/vkazmir/flightdesk/internal/service/flights"
	"github.com/vkazmir/flightdesk/internal/service/pricing"
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
	if err := logging.Init(cfg.Env); err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logging.L().Fatalw("connect postgres", "error", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Search.CacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	passengerRepo := repository.NewPassengerRepository(pool)
	priceRepo := repository.NewPriceRepository(pool)

	flightService := flights.NewFlightService(flightRepo, redisCache)
	bookingService := booking.NewBookingService(
		bookingRepo,
		flightRepo,
		passengerRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.SeatHoldTTLSeconds)*time.Second,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithRefAttempts(cfg.Booking.RefAttempts),
	)
	pricingService := pricing.NewPricingService(priceRepo, producer, cfg.Kafka.BookingEventsTopic,
		pricing.WithNotificationsTopic(cfg.Kafka.NotificationsTopic))

	if err := bootstrap.Run(ctx, cfg, flightService, bookingService, pricingService); err != nil {
		logging.L().Fatalw("server error", "error", err)
	}
}
