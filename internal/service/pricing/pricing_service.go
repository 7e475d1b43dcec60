package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vkazmir/flightdesk/internal/domain"
	"github.com/vkazmir/flightdesk/internal/kafka"
	"github.com/vkazmir/flightdesk/internal/logging"
	"github.com/vkazmir/flightdesk/internal/repository"
)

type PricingUseCase interface {
	SetPrice(ctx context.Context, flightID int64, newPriceCents int64, actor string) error
	AuditTrail(ctx context.Context, flightID int64) ([]domain.PriceAuditRecord, error)
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

const publishRetries = 3

type PricingService struct {
	prices             repository.PriceRepository
	producer           Producer
	eventsTopic        string
	notificationsTopic string
}

type PricingServiceOption func(*PricingService)

// WithNotificationsTopic mirrors price events onto the topic the
// notification worker consumes.
func WithNotificationsTopic(topic string) PricingServiceOption {
	return func(s *PricingService) {
		s.notificationsTopic = topic
	}
}

func NewPricingService(prices repository.PriceRepository, producer Producer, eventsTopic string, opts ...PricingServiceOption) *PricingService {
	service := &PricingService{prices: prices, producer: producer, eventsTopic: eventsTopic}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// SetPrice changes a flight's base price. The update and its audit record
// commit together in the store; setting the current price again is a silent
// no-op and leaves no audit trace.
func (s *PricingService) SetPrice(ctx context.Context, flightID int64, newPriceCents int64, actor string) error {
	if newPriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if strings.TrimSpace(actor) == "" {
		return fmt.Errorf("%w: actor is required", domain.ErrValidation)
	}

	rec, err := s.prices.SetPrice(ctx, flightID, newPriceCents, actor)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	if s.producer != nil {
		event := kafka.PriceEvent{
			ID:            rec.ID,
			Type:          kafka.EventPriceChanged,
			FlightID:      rec.FlightID,
			OldPriceCents: rec.OldPriceCents,
			NewPriceCents: rec.NewPriceCents,
			Actor:         rec.Actor,
			ChangedAt:     rec.ChangedAt,
		}
		key := fmt.Sprintf("flight-%d", rec.FlightID)
		if s.eventsTopic != "" {
			if err := s.producer.PublishWithRetry(ctx, s.eventsTopic, key, event, publishRetries); err != nil {
				logging.L().Warnw("publish price event failed", "flight_id", rec.FlightID, "error", err)
			}
		}
		if s.notificationsTopic != "" {
			if err := s.producer.PublishWithRetry(ctx, s.notificationsTopic, key, event, publishRetries); err != nil {
				logging.L().Warnw("publish price notification failed", "flight_id", rec.FlightID, "error", err)
			}
		}
	}

	logging.L().Infow("flight price changed",
		"flight_id", rec.FlightID,
		"old_price_cents", rec.OldPriceCents,
		"new_price_cents", rec.NewPriceCents,
		"actor", rec.Actor,
		"changed_at", rec.ChangedAt.Format(time.RFC3339),
	)
	return nil
}

func (s *PricingService) AuditTrail(ctx context.Context, flightID int64) ([]domain.PriceAuditRecord, error) {
	return s.prices.ListByFlight(ctx, flightID)
}

// RecentChanges returns audit records written at or after since, across all
// flights. The worker's periodic sweep reports on them.
func (s *PricingService) RecentChanges(ctx context.Context, since time.Time) ([]domain.PriceAuditRecord, error) {
	return s.prices.ListChangedSince(ctx, since)
}

var _ PricingUseCase = (*PricingService)(nil)
