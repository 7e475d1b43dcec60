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
	"github.com/vkazmir/flightdesk/internal/email"
	"github.com/vkazmir/flightdesk/internal/kafka"
	"github.com/vkazmir/flightdesk/internal/logging"
	"github.com/vkazmir/flightdesk/internal/repository"
	"github.com/vkazmir/flightdesk/internal/service/pricing"
)

const defaultSweepInterval = 15 * time.Minute

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

	// The worker only reads the audit trail; it publishes nothing.
	pricingService := pricing.NewPricingService(repository.NewPriceRepository(pool), nil, "")

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	go func() {
		if err := consumer.Consume(ctx, email.NewSender()); err != nil && ctx.Err() == nil {
			logging.L().Errorw("consumer stopped", "error", err)
		}
	}()

	sweepInterval := time.Duration(cfg.Worker.AuditSweepMinutes) * time.Minute
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()

	lastSweep := time.Now()
	for {
		select {
		case <-sweepTicker.C:
			cutoff := time.Now()
			records, err := pricingService.RecentChanges(ctx, lastSweep)
			if err != nil {
				logging.L().Errorw("price audit sweep", "error", err)
				continue
			}
			logging.L().Infow("price audit sweep",
				"changes", len(records),
				"since", lastSweep.Format(time.RFC3339),
			)
			lastSweep = cutoff
		case <-ctx.Done():
			logging.L().Infow("worker shutting down")
			return
		}
	}
}
