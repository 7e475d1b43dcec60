package email

import (
	"context"

	"github.com/vkazmir/flightdesk/internal/kafka"
	"github.com/vkazmir/flightdesk/internal/logging"
)

// Sender delivers passenger-facing notifications. The transport is a log
// line for now; the call sites are where a real mail provider plugs in.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) HandleBooking(ctx context.Context, event kafka.BookingEvent) error {
	logging.L().Infow("send booking notification",
		"to", event.PassengerEmail,
		"type", event.Type,
		"ref", event.Ref,
		"flight_id", event.FlightID,
		"seat", event.SeatNumber,
	)
	return nil
}

func (s *Sender) HandlePriceChange(ctx context.Context, event kafka.PriceEvent) error {
	logging.L().Infow("send price change notification",
		"flight_id", event.FlightID,
		"old_price_cents", event.OldPriceCents,
		"new_price_cents", event.NewPriceCents,
		"actor", event.Actor,
	)
	return nil
}

var _ kafka.EventHandler = (*Sender)(nil)
