package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vkazmir/flightdesk/internal/domain"
)

// MemoryStore is an in-process implementation of the repository interfaces.
// It honors the same per-flight exclusivity contract as the Postgres store,
// using one mutex per flight instead of a row lock. Used by tests and for
// running the service without external infrastructure.
type MemoryStore struct {
	mu         sync.RWMutex
	airlines   map[int64]domain.Airline
	airports   map[int64]domain.Airport
	aircraft   map[int64]domain.Aircraft
	flights    map[int64]*domain.Flight
	passengers map[int64]domain.Passenger
	bookings   map[string]*domain.Booking
	audit      map[int64][]domain.PriceAuditRecord
	flightMu   map[int64]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		airlines:   make(map[int64]domain.Airline),
		airports:   make(map[int64]domain.Airport),
		aircraft:   make(map[int64]domain.Aircraft),
		flights:    make(map[int64]*domain.Flight),
		passengers: make(map[int64]domain.Passenger),
		bookings:   make(map[string]*domain.Booking),
		audit:      make(map[int64][]domain.PriceAuditRecord),
		flightMu:   make(map[int64]*sync.Mutex),
	}
}

func (s *MemoryStore) AddAirline(a domain.Airline)     { s.mu.Lock(); s.airlines[a.ID] = a; s.mu.Unlock() }
func (s *MemoryStore) AddAirport(a domain.Airport)     { s.mu.Lock(); s.airports[a.ID] = a; s.mu.Unlock() }
func (s *MemoryStore) AddAircraft(a domain.Aircraft)   { s.mu.Lock(); s.aircraft[a.ID] = a; s.mu.Unlock() }
func (s *MemoryStore) AddPassenger(p domain.Passenger) { s.mu.Lock(); s.passengers[p.ID] = p; s.mu.Unlock() }

func (s *MemoryStore) AddFlight(f domain.Flight) {
	now := time.Now()
	f.CreatedAt, f.UpdatedAt = now, now
	s.mu.Lock()
	cp := f
	s.flights[f.ID] = &cp
	s.mu.Unlock()
}

// flightLock returns the mutex serializing booking mutations for one flight.
// Different flights get independent mutexes and never contend.
func (s *MemoryStore) flightLock(flightID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.flightMu[flightID]
	if !ok {
		m = &sync.Mutex{}
		s.flightMu[flightID] = m
	}
	return m
}

func (s *MemoryStore) activeCountLocked(flightID int64) int {
	n := 0
	for _, b := range s.bookings {
		if b.FlightID == flightID && b.Status.Active() {
			n++
		}
	}
	return n
}

func (s *MemoryStore) seatHeldLocked(flightID int64, seat string) bool {
	for _, b := range s.bookings {
		if b.FlightID == flightID && b.SeatNumber == seat && b.Status.Active() {
			return true
		}
	}
	return false
}

// --- FlightRepository ---

func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flights[id]
	if !ok {
		return nil, fmt.Errorf("%w: flight", domain.ErrNotFound)
	}
	cp := *f
	return &cp, nil
}

func (s *MemoryStore) AvailableSeats(ctx context.Context, flightID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flights[flightID]
	if !ok {
		return 0, fmt.Errorf("%w: flight", domain.ErrNotFound)
	}
	ac, ok := s.aircraft[f.AircraftID]
	if !ok {
		return 0, fmt.Errorf("%w: aircraft", domain.ErrNotFound)
	}
	return ac.TotalSeats - s.activeCountLocked(flightID), nil
}

func (s *MemoryStore) Search(ctx context.Context, q domain.SearchQuery) ([]domain.FlightAvailability, error) {
	from, to := q.DayWindow()
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.FlightAvailability, 0)
	for _, f := range s.flights {
		dep, ok := s.airports[f.DepartureAirportID]
		if !ok || dep.City != q.DepartureCity {
			continue
		}
		arr, ok := s.airports[f.ArrivalAirportID]
		if !ok || arr.City != q.ArrivalCity {
			continue
		}
		if f.Status == domain.FlightStatusCancelled {
			continue
		}
		if f.DepartureTime.Before(from) || !f.DepartureTime.Before(to) {
			continue
		}
		ac, ok := s.aircraft[f.AircraftID]
		if !ok {
			continue
		}
		available := ac.TotalSeats - s.activeCountLocked(f.ID)
		if available <= 0 {
			continue
		}
		results = append(results, domain.FlightAvailability{
			FlightID:       f.ID,
			AirlineName:    s.airlines[f.AirlineID].Name,
			DepartureCity:  dep.City,
			ArrivalCity:    arr.City,
			DepartureTime:  f.DepartureTime,
			ArrivalTime:    f.ArrivalTime,
			BasePriceCents: f.BasePriceCents,
			Status:         f.Status,
			AvailableSeats: available,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].DepartureTime.Before(results[j].DepartureTime)
	})
	return results, nil
}

// --- PassengerRepository ---

func (s *MemoryStore) GetPassengerByID(ctx context.Context, id int64) (*domain.Passenger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.passengers[id]
	if !ok {
		return nil, fmt.Errorf("%w: passenger", domain.ErrNotFound)
	}
	return &p, nil
}

func (s *MemoryStore) GetPassengerByEmail(ctx context.Context, email string) (*domain.Passenger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.passengers {
		if p.Email == email {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: passenger", domain.ErrNotFound)
}

// --- BookingRepository ---

func (s *MemoryStore) CreateConfirmed(ctx context.Context, booking *domain.Booking) error {
	lock := s.flightLock(booking.FlightID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[booking.FlightID]
	if !ok {
		return fmt.Errorf("%w: flight", domain.ErrNotFound)
	}
	ac, ok := s.aircraft[f.AircraftID]
	if !ok {
		return fmt.Errorf("%w: aircraft", domain.ErrNotFound)
	}
	if s.activeCountLocked(f.ID) >= ac.TotalSeats {
		return domain.ErrSeatsUnavailable
	}
	if s.seatHeldLocked(f.ID, booking.SeatNumber) {
		return fmt.Errorf("%w: %s", domain.ErrSeatTaken, booking.SeatNumber)
	}
	if _, exists := s.bookings[booking.Ref]; exists {
		return fmt.Errorf("%w: booking ref %s", domain.ErrConflict, booking.Ref)
	}

	now := time.Now()
	booking.Status = domain.BookingStatusConfirmed
	booking.TotalPriceCents = f.BasePriceCents
	booking.CreatedAt, booking.UpdatedAt = now, now
	cp := *booking
	s.bookings[booking.Ref] = &cp
	return nil
}

func (s *MemoryStore) GetByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[ref]
	if !ok {
		return nil, fmt.Errorf("%w: booking", domain.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) Cancel(ctx context.Context, ref string) (*domain.Booking, error) {
	return s.transition(ctx, ref, func(b *domain.Booking) error {
		if b.Status == domain.BookingStatusCancelled {
			return nil
		}
		b.Status = domain.BookingStatusCancelled
		return nil
	})
}

func (s *MemoryStore) CheckIn(ctx context.Context, ref string) (*domain.Booking, error) {
	return s.transition(ctx, ref, func(b *domain.Booking) error {
		if b.Status != domain.BookingStatusConfirmed {
			return fmt.Errorf("%w: cannot check in booking with status %s", domain.ErrInvalidState, b.Status)
		}
		b.Status = domain.BookingStatusCheckedIn
		return nil
	})
}

func (s *MemoryStore) transition(ctx context.Context, ref string, fn func(*domain.Booking) error) (*domain.Booking, error) {
	s.mu.RLock()
	b, ok := s.bookings[ref]
	if !ok {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: booking", domain.ErrNotFound)
	}
	flightID := b.FlightID
	s.mu.RUnlock()

	lock := s.flightLock(flightID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok = s.bookings[ref]
	if !ok {
		return nil, fmt.Errorf("%w: booking", domain.ErrNotFound)
	}
	prev := b.Status
	if err := fn(b); err != nil {
		return nil, err
	}
	if b.Status != prev {
		b.UpdatedAt = time.Now()
	}
	cp := *b
	return &cp, nil
}

// --- PriceRepository ---

func (s *MemoryStore) SetPrice(ctx context.Context, flightID int64, newPriceCents int64, actor string) (*domain.PriceAuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[flightID]
	if !ok {
		return nil, fmt.Errorf("%w: flight", domain.ErrNotFound)
	}
	if f.BasePriceCents == newPriceCents {
		return nil, nil
	}

	rec := domain.PriceAuditRecord{
		ID:            uuid.New(),
		FlightID:      flightID,
		OldPriceCents: f.BasePriceCents,
		NewPriceCents: newPriceCents,
		Actor:         actor,
		ChangedAt:     time.Now(),
	}
	f.BasePriceCents = newPriceCents
	f.UpdatedAt = rec.ChangedAt
	s.audit[flightID] = append(s.audit[flightID], rec)
	return &rec, nil
}

func (s *MemoryStore) ListByFlight(ctx context.Context, flightID int64) ([]domain.PriceAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.PriceAuditRecord, len(s.audit[flightID]))
	copy(records, s.audit[flightID])
	return records, nil
}

func (s *MemoryStore) ListChangedSince(ctx context.Context, since time.Time) ([]domain.PriceAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.PriceAuditRecord, 0)
	for _, recs := range s.audit {
		for _, rec := range recs {
			if !rec.ChangedAt.Before(since) {
				records = append(records, rec)
			}
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ChangedAt.Before(records[j].ChangedAt)
	})
	return records, nil
}

type memoryPassengers struct{ *MemoryStore }

// Passengers adapts the store to PassengerRepository; the method set clashes
// with FlightRepository.GetByID, so it lives on a wrapper.
func (s *MemoryStore) Passengers() PassengerRepository {
	return memoryPassengers{s}
}

func (p memoryPassengers) GetByID(ctx context.Context, id int64) (*domain.Passenger, error) {
	return p.GetPassengerByID(ctx, id)
}

func (p memoryPassengers) GetByEmail(ctx context.Context, email string) (*domain.Passenger, error) {
	return p.GetPassengerByEmail(ctx, email)
}

var (
	_ FlightRepository    = (*MemoryStore)(nil)
	_ BookingRepository   = (*MemoryStore)(nil)
	_ PriceRepository     = (*MemoryStore)(nil)
	_ PassengerRepository = (memoryPassengers{})
)
