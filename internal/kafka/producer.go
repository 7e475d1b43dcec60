package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/vkazmir/flightdesk/internal/logging"
)

const (
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCheckedIn = "booking_checked_in"
	EventPriceChanged     = "price_changed"
)

type BookingEvent struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Ref             string    `json:"ref"`
	FlightID        int64     `json:"flight_id"`
	SeatNumber      string    `json:"seat_number"`
	PassengerID     int64     `json:"passenger_id"`
	PassengerEmail  string    `json:"passenger_email"`
	Status          string    `json:"status"`
	TotalPriceCents int64     `json:"total_price_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type PriceEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	FlightID      int64     `json:"flight_id"`
	OldPriceCents int64     `json:"old_price_cents"`
	NewPriceCents int64     `json:"new_price_cents"`
	Actor         string    `json:"actor"`
	ChangedAt     time.Time `json:"changed_at"`
}

// Envelope carries only the discriminator so consumers can pick the payload
// type before decoding the full message.
type Envelope struct {
	Type string `json:"type"`
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	logging.L().Debugw("published event", "topic", topic, "key", key)
	return nil
}

// PublishWithRetry retries transient broker failures with linear backoff.
// Used for price audit events, which must not be dropped on a hiccup.
func (p *Producer) PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = p.Publish(ctx, topic, key, payload); lastErr == nil {
			return nil
		}
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
			}
		}
	}
	return fmt.Errorf("publish failed after %d retries: %w", maxRetries, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
