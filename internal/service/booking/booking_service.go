package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vkazmir/flightdesk/internal/domain"
	"github.com/vkazmir/flightdesk/internal/kafka"
	"github.com/vkazmir/flightdesk/internal/logging"
	"github.com/vkazmir/flightdesk/internal/repository"
)

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*domain.Booking, error)
	Cancel(ctx context.Context, ref string) (*domain.Booking, error)
	CheckIn(ctx context.Context, ref string) (*domain.Booking, error)
}

// Cache is the optional advisory seat-hold layer. A nil cache disables it;
// the store's exclusive scope alone guarantees correctness.
type Cache interface {
	AcquireSeatHold(ctx context.Context, flightID int64, seat string, ttl time.Duration) (bool, error)
	ReleaseSeatHold(ctx context.Context, flightID int64, seat string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

const defaultRefAttempts = 5

type BookingService struct {
	bookings           repository.BookingRepository
	flights            repository.FlightRepository
	passengers         repository.PassengerRepository
	cache              Cache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	holdTTL            time.Duration
	refAttempts        int
	now                func() time.Time
}

type BookInput struct {
	PassengerID int64  `json:"passenger_id"`
	FlightID    int64  `json:"flight_id"`
	SeatNumber  string `json:"seat_number"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithRefAttempts(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.refAttempts = n
		}
	}
}

// WithClock overrides the time source used for the departure cutoff.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	passengers repository.PassengerRepository,
	cache Cache,
	producer Producer,
	eventsTopic string,
	holdTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:    bookings,
		flights:     flights,
		passengers:  passengers,
		cache:       cache,
		producer:    producer,
		eventsTopic: eventsTopic,
		holdTTL:     holdTTL,
		refAttempts: defaultRefAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book reserves a seat for a passenger. The availability recount, the seat
// uniqueness check, the price snapshot and the insert all happen inside the
// store's per-flight exclusive scope; nothing is persisted on any failure.
func (s *BookingService) Book(ctx context.Context, input BookInput) (*domain.Booking, error) {
	seat := strings.ToUpper(strings.TrimSpace(input.SeatNumber))
	if seat == "" {
		return nil, fmt.Errorf("%w: seat number is required", domain.ErrValidation)
	}
	if input.PassengerID <= 0 || input.FlightID <= 0 {
		return nil, fmt.Errorf("%w: passenger and flight ids must be positive", domain.ErrValidation)
	}

	passenger, err := s.passengers.GetByID(ctx, input.PassengerID)
	if err != nil {
		return nil, err
	}
	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if flight.Status == domain.FlightStatusCancelled {
		return nil, fmt.Errorf("%w: flight %d is cancelled", domain.ErrInvalidState, flight.ID)
	}
	if !flight.DepartureTime.After(s.now()) {
		return nil, fmt.Errorf("%w: flight %d has already departed", domain.ErrInvalidState, flight.ID)
	}

	held := false
	if s.cache != nil {
		ok, err := s.cache.AcquireSeatHold(ctx, flight.ID, seat, s.holdTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s is being booked by another passenger", domain.ErrSeatTaken, seat)
		}
		held = true
	}
	defer func() {
		if held {
			_ = s.cache.ReleaseSeatHold(ctx, flight.ID, seat)
		}
	}()

	// A booking reference is never trusted from a single draw: the store
	// rejects collisions with ErrConflict and we redraw up to the budget.
	for attempt := 0; attempt < s.refAttempts; attempt++ {
		b := &domain.Booking{
			Ref:         domain.NewBookingRef(),
			PassengerID: passenger.ID,
			FlightID:    flight.ID,
			SeatNumber:  seat,
		}
		err := s.bookings.CreateConfirmed(ctx, b)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.publishBooking(ctx, kafka.EventBookingConfirmed, b, passenger.Email)
		return b, nil
	}
	return nil, fmt.Errorf("%w: booking ref space exhausted after %d attempts", domain.ErrConflict, s.refAttempts)
}

// Cancel releases a seat. Cancelling an already cancelled booking is an
// idempotent no-op.
func (s *BookingService) Cancel(ctx context.Context, ref string) (*domain.Booking, error) {
	current, err := s.bookings.GetByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}

	updated, err := s.bookings.Cancel(ctx, ref)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.ReleaseSeatHold(ctx, updated.FlightID, updated.SeatNumber)
	}
	s.publishBooking(ctx, kafka.EventBookingCancelled, updated, "")
	return updated, nil
}

func (s *BookingService) CheckIn(ctx context.Context, ref string) (*domain.Booking, error) {
	updated, err := s.bookings.CheckIn(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.publishBooking(ctx, kafka.EventBookingCheckedIn, updated, "")
	return updated, nil
}

// publishBooking emits a lifecycle event after the store commit. Publish
// failures are logged, never propagated: the booking is already durable.
// Callers that have not loaded the passenger pass an empty email and the
// address is resolved here, so notifications always know the recipient.
func (s *BookingService) publishBooking(ctx context.Context, eventType string, b *domain.Booking, email string) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	if email == "" {
		if p, err := s.passengers.GetByID(ctx, b.PassengerID); err == nil {
			email = p.Email
		} else {
			logging.L().Warnw("load passenger for notification", "ref", b.Ref, "passenger_id", b.PassengerID, "error", err)
		}
	}
	event := kafka.BookingEvent{
		ID:              uuid.New(),
		Type:            eventType,
		Ref:             b.Ref,
		FlightID:        b.FlightID,
		SeatNumber:      b.SeatNumber,
		PassengerID:     b.PassengerID,
		PassengerEmail:  email,
		Status:          string(b.Status),
		TotalPriceCents: b.TotalPriceCents,
		OccurredAt:      time.Now(),
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, b.Ref, event); err != nil {
		logging.L().Warnw("publish booking event failed", "type", eventType, "ref", b.Ref, "error", err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.Ref, event); err != nil {
			logging.L().Warnw("publish notification failed", "type", eventType, "ref", b.Ref, "error", err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
