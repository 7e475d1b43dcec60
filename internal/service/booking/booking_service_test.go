package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vkazmir/flightdesk/internal/domain"
	"github.com/vkazmir/flightdesk/internal/kafka"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateConfirmed(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Cancel(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) CheckIn(ctx context.Context, ref string) (*domain.Booking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) AvailableSeats(ctx context.Context, flightID int64) (int, error) {
	args := m.Called(ctx, flightID)
	return args.Int(0), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, q domain.SearchQuery) ([]domain.FlightAvailability, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.FlightAvailability), args.Error(1)
}

type MockPassengerRepository struct {
	mock.Mock
}

func (m *MockPassengerRepository) GetByID(ctx context.Context, id int64) (*domain.Passenger, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Passenger), args.Error(1)
}

func (m *MockPassengerRepository) GetByEmail(ctx context.Context, email string) (*domain.Passenger, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Passenger), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireSeatHold(ctx context.Context, flightID int64, seat string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, flightID, seat, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseSeatHold(ctx context.Context, flightID int64, seat string) error {
	args := m.Called(ctx, flightID, seat)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func fixtureFlight() *domain.Flight {
	return &domain.Flight{
		ID:             4,
		AirlineID:      1,
		AircraftID:     2,
		DepartureTime:  time.Now().Add(24 * time.Hour),
		ArrivalTime:    time.Now().Add(27 * time.Hour),
		BasePriceCents: 10000,
		Status:         domain.FlightStatusScheduled,
	}
}

func fixturePassenger() *domain.Passenger {
	return &domain.Passenger{ID: 7, FullName: "Anna Petrova", Email: "anna@example.com"}
}

func TestBookingService_Book_Success(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}
	mockPassengerRepo := &MockPassengerRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockBookingRepo, mockFlightRepo, mockPassengerRepo,
		mockCache, mockProducer, "booking-events", time.Minute)

	ctx := context.Background()
	input := BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12a"}

	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(fixtureFlight(), nil).Once()
	mockCache.On("AcquireSeatHold", ctx, int64(4), "12A", time.Minute).Return(true, nil).Once()
	mockBookingRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*domain.Booking)
			b.Status = domain.BookingStatusConfirmed
			b.TotalPriceCents = 10000
			b.CreatedAt = time.Now()
		}).Return(nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil).Once()
	mockCache.On("ReleaseSeatHold", ctx, int64(4), "12A").Return(nil).Once()

	b, err := service.Book(ctx, input)

	assert.NoError(t, err)
	assert.NotNil(t, b)
	assert.Equal(t, domain.BookingStatusConfirmed, b.Status)
	assert.Equal(t, "12A", b.SeatNumber)
	assert.Equal(t, int64(10000), b.TotalPriceCents)
	assert.Len(t, b.Ref, domain.RefLength)

	mockPassengerRepo.AssertExpectations(t)
	mockFlightRepo.AssertExpectations(t)
	mockBookingRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_Book_ValidationErrors(t *testing.T) {
	service := NewBookingService(&MockBookingRepository{}, &MockFlightRepository{},
		&MockPassengerRepository{}, nil, nil, "", time.Minute)

	ctx := context.Background()

	testCases := []struct {
		name  string
		input BookInput
	}{
		{name: "empty seat", input: BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "  "}},
		{name: "zero passenger", input: BookInput{PassengerID: 0, FlightID: 4, SeatNumber: "12A"}},
		{name: "negative flight", input: BookInput{PassengerID: 7, FlightID: -1, SeatNumber: "12A"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := service.Book(ctx, tc.input)
			assert.Nil(t, b)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestBookingService_Book_PassengerNotFound(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockPassengerRepo := &MockPassengerRepository{}

	service := NewBookingService(mockBookingRepo, &MockFlightRepository{}, mockPassengerRepo,
		nil, nil, "", time.Minute)

	ctx := context.Background()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(nil, domain.ErrNotFound).Once()

	b, err := service.Book(ctx, BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	mockBookingRepo.AssertNotCalled(t, "CreateConfirmed")
}

func TestBookingService_Book_FlightNotFound(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}
	mockPassengerRepo := &MockPassengerRepository{}

	service := NewBookingService(mockBookingRepo, mockFlightRepo, mockPassengerRepo,
		nil, nil, "", time.Minute)

	ctx := context.Background()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(nil, domain.ErrNotFound).Once()

	b, err := service.Book(ctx, BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	mockBookingRepo.AssertNotCalled(t, "CreateConfirmed")
}

func TestBookingService_Book_CancelledFlight(t *testing.T) {
	mockFlightRepo := &MockFlightRepository{}
	mockPassengerRepo := &MockPassengerRepository{}

	service := NewBookingService(&MockBookingRepository{}, mockFlightRepo, mockPassengerRepo,
		nil, nil, "", time.Minute)

	ctx := context.Background()
	flight := fixtureFlight()
	flight.Status = domain.FlightStatusCancelled

	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(flight, nil).Once()

	b, err := service.Book(ctx, BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBookingService_Book_DepartedFlight(t *testing.T) {
	mockFlightRepo := &MockFlightRepository{}
	mockPassengerRepo := &MockPassengerRepository{}

	// Clock pinned after departure.
	flight := fixtureFlight()
	service := NewBookingService(&MockBookingRepository{}, mockFlightRepo, mockPassengerRepo,
		nil, nil, "", time.Minute,
		WithClock(func() time.Time { return flight.DepartureTime.Add(time.Minute) }))

	ctx := context.Background()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(flight, nil).Once()

	b, err := service.Book(ctx, BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBookingService_Book_SeatHoldContended(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}
	mockPassengerRepo := &MockPassengerRepository{}
	mockCache := &MockCache{}

	service := NewBookingService(mockBookingRepo, mockFlightRepo, mockPassengerRepo,
		mockCache, nil, "", time.Minute)

	ctx := context.Background()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(fixtureFlight(), nil).Once()
	mockCache.On("AcquireSeatHold", ctx, int64(4), "12A", time.Minute).Return(false, nil).Once()

	b, err := service.Book(ctx, BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrSeatTaken)
	mockBookingRepo.AssertNotCalled(t, "CreateConfirmed")
}

func TestBookingService_Book_SeatsUnavailable(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}
	mockPassengerRepo := &MockPassengerRepository{}
	mockCache := &MockCache{}

	service := NewBookingService(mockBookingRepo, mockFlightRepo, mockPassengerRepo,
		mockCache, nil, "", time.Minute)

	ctx := context.Background()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(fixtureFlight(), nil).Once()
	mockCache.On("AcquireSeatHold", ctx, int64(4), "12A", time.Minute).Return(true, nil).Once()
	mockBookingRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(domain.ErrSeatsUnavailable).Once()
	mockCache.On("ReleaseSeatHold", ctx, int64(4), "12A").Return(nil).Once()

	b, err := service.Book(ctx, BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrSeatsUnavailable)
	mockCache.AssertExpectations(t)
}

func TestBookingService_Book_RefCollisionRetried(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}
	mockPassengerRepo := &MockPassengerRepository{}

	service := NewBookingService(mockBookingRepo, mockFlightRepo, mockPassengerRepo,
		nil, nil, "", time.Minute)

	ctx := context.Background()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(fixtureFlight(), nil).Once()
	mockBookingRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(domain.ErrConflict).Once()
	mockBookingRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*domain.Booking)
			b.Status = domain.BookingStatusConfirmed
		}).Return(nil).Once()

	b, err := service.Book(ctx, BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"})

	assert.NoError(t, err)
	assert.NotNil(t, b)
	mockBookingRepo.AssertNumberOfCalls(t, "CreateConfirmed", 2)
}

func TestBookingService_Book_RefAttemptsExhausted(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}
	mockPassengerRepo := &MockPassengerRepository{}

	service := NewBookingService(mockBookingRepo, mockFlightRepo, mockPassengerRepo,
		nil, nil, "", time.Minute, WithRefAttempts(2))

	ctx := context.Background()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(fixtureFlight(), nil).Once()
	mockBookingRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(domain.ErrConflict).Twice()

	b, err := service.Book(ctx, BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrConflict)
	mockBookingRepo.AssertNumberOfCalls(t, "CreateConfirmed", 2)
}

func TestBookingService_Cancel_Success(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockPassengerRepo := &MockPassengerRepository{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockBookingRepo, &MockFlightRepository{}, mockPassengerRepo,
		nil, mockProducer, "booking-events", time.Minute)

	ctx := context.Background()
	current := &domain.Booking{Ref: "ABCD2345", PassengerID: 7, FlightID: 4, SeatNumber: "12A", Status: domain.BookingStatusConfirmed}
	cancelled := &domain.Booking{Ref: "ABCD2345", PassengerID: 7, FlightID: 4, SeatNumber: "12A", Status: domain.BookingStatusCancelled}

	mockBookingRepo.On("GetByRef", ctx, "ABCD2345").Return(current, nil).Once()
	mockBookingRepo.On("Cancel", ctx, "ABCD2345").Return(cancelled, nil).Once()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", "ABCD2345", mock.Anything).Return(nil).Once()

	b, err := service.Cancel(ctx, "ABCD2345")

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, b.Status)
	mockBookingRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_Cancel_EventCarriesPassengerEmail(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockPassengerRepo := &MockPassengerRepository{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockBookingRepo, &MockFlightRepository{}, mockPassengerRepo,
		nil, mockProducer, "booking-events", time.Minute)

	ctx := context.Background()
	current := &domain.Booking{Ref: "ABCD2345", PassengerID: 7, FlightID: 4, SeatNumber: "12A", Status: domain.BookingStatusConfirmed}
	cancelled := &domain.Booking{Ref: "ABCD2345", PassengerID: 7, FlightID: 4, SeatNumber: "12A", Status: domain.BookingStatusCancelled}

	mockBookingRepo.On("GetByRef", ctx, "ABCD2345").Return(current, nil).Once()
	mockBookingRepo.On("Cancel", ctx, "ABCD2345").Return(cancelled, nil).Once()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()

	var published kafka.BookingEvent
	mockProducer.On("Publish", ctx, "booking-events", "ABCD2345", mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(3).(kafka.BookingEvent)
		}).Return(nil).Once()

	_, err := service.Cancel(ctx, "ABCD2345")

	assert.NoError(t, err)
	assert.Equal(t, "anna@example.com", published.PassengerEmail)
	assert.Equal(t, kafka.EventBookingCancelled, published.Type)
	mockPassengerRepo.AssertExpectations(t)
}

func TestBookingService_Cancel_AlreadyCancelled(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockBookingRepo, &MockFlightRepository{}, &MockPassengerRepository{},
		nil, mockProducer, "booking-events", time.Minute)

	ctx := context.Background()
	current := &domain.Booking{Ref: "ABCD2345", FlightID: 4, Status: domain.BookingStatusCancelled}

	mockBookingRepo.On("GetByRef", ctx, "ABCD2345").Return(current, nil).Once()

	b, err := service.Cancel(ctx, "ABCD2345")

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, b.Status)
	mockBookingRepo.AssertNotCalled(t, "Cancel")
	mockProducer.AssertNotCalled(t, "Publish")
}

func TestBookingService_Cancel_NotFound(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}

	service := NewBookingService(mockBookingRepo, &MockFlightRepository{}, &MockPassengerRepository{},
		nil, nil, "", time.Minute)

	ctx := context.Background()
	mockBookingRepo.On("GetByRef", ctx, "MISSING2").Return(nil, domain.ErrNotFound).Once()

	b, err := service.Cancel(ctx, "MISSING2")

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingService_CheckIn_Success(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockPassengerRepo := &MockPassengerRepository{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockBookingRepo, &MockFlightRepository{}, mockPassengerRepo,
		nil, mockProducer, "booking-events", time.Minute)

	ctx := context.Background()
	checkedIn := &domain.Booking{Ref: "ABCD2345", PassengerID: 7, FlightID: 4, Status: domain.BookingStatusCheckedIn}

	mockBookingRepo.On("CheckIn", ctx, "ABCD2345").Return(checkedIn, nil).Once()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()

	var published kafka.BookingEvent
	mockProducer.On("Publish", ctx, "booking-events", "ABCD2345", mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(3).(kafka.BookingEvent)
		}).Return(nil).Once()

	b, err := service.CheckIn(ctx, "ABCD2345")

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCheckedIn, b.Status)
	assert.Equal(t, "anna@example.com", published.PassengerEmail)
}

func TestBookingService_CheckIn_InvalidState(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}

	service := NewBookingService(mockBookingRepo, &MockFlightRepository{}, &MockPassengerRepository{},
		nil, nil, "", time.Minute)

	ctx := context.Background()
	mockBookingRepo.On("CheckIn", ctx, "ABCD2345").Return(nil, domain.ErrInvalidState).Once()

	b, err := service.CheckIn(ctx, "ABCD2345")

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBookingService_Book_PublishFailureDoesNotFailBooking(t *testing.T) {
	mockBookingRepo := &MockBookingRepository{}
	mockFlightRepo := &MockFlightRepository{}
	mockPassengerRepo := &MockPassengerRepository{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockBookingRepo, mockFlightRepo, mockPassengerRepo,
		nil, mockProducer, "booking-events", time.Minute)

	ctx := context.Background()
	mockPassengerRepo.On("GetByID", ctx, int64(7)).Return(fixturePassenger(), nil).Once()
	mockFlightRepo.On("GetByID", ctx, int64(4)).Return(fixtureFlight(), nil).Once()
	mockBookingRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Booking).Status = domain.BookingStatusConfirmed
		}).Return(nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()

	b, err := service.Book(ctx, BookInput{PassengerID: 7, FlightID: 4, SeatNumber: "12A"})

	assert.NoError(t, err)
	assert.NotNil(t, b)
}
