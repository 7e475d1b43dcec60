package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vkazmir/flightdesk/config"
	"github.com/vkazmir/flightdesk/internal/logging"
)

// EventHandler receives decoded domain events. A handler error stops the
// consume loop; decode failures and unknown types are logged and skipped.
type EventHandler interface {
	HandleBooking(ctx context.Context, event BookingEvent) error
	HandlePriceChange(ctx context.Context, event PriceEvent) error
}

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(cfg config.KafkaConfig, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           cfg.Brokers,
			GroupID:           cfg.GroupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads messages until the context ends, routing each to the handler
// by its envelope type.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		if err := dispatch(ctx, msg.Value, handler); err != nil {
			return err
		}
	}
}

func dispatch(ctx context.Context, raw []byte, handler EventHandler) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logging.L().Warnw("decode event envelope", "error", err)
		return nil
	}

	switch env.Type {
	case EventBookingConfirmed, EventBookingCancelled, EventBookingCheckedIn:
		var event BookingEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			logging.L().Warnw("decode booking event", "error", err)
			return nil
		}
		return handler.HandleBooking(ctx, event)
	case EventPriceChanged:
		var event PriceEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			logging.L().Warnw("decode price event", "error", err)
			return nil
		}
		return handler.HandlePriceChange(ctx, event)
	default:
		logging.L().Debugw("skipping unknown event type", "type", env.Type)
		return nil
	}
}
