package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vkazmir/flightdesk/internal/domain"
)

type BookingRepository interface {
	// CreateConfirmed atomically checks capacity, seat and reference
	// uniqueness for the booking's flight and inserts it with status
	// CONFIRMED. The whole sequence runs inside one transaction holding an
	// exclusive lock on the flight row, so no two bookings on the same
	// flight can interleave. TotalPriceCents is snapshotted from the
	// flight's base price under that same lock.
	CreateConfirmed(ctx context.Context, booking *domain.Booking) error
	GetByRef(ctx context.Context, ref string) (*domain.Booking, error)
	// Cancel transitions a booking to CANCELLED under the flight lock.
	// Cancelling an already cancelled booking is a no-op.
	Cancel(ctx context.Context, ref string) (*domain.Booking, error)
	// CheckIn transitions CONFIRMED to CHECKED_IN; any other source state
	// yields ErrInvalidState.
	CheckIn(ctx context.Context, ref string) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `ref, passenger_id, flight_id, seat_number, status, total_price_cents, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.Ref, &b.PassengerID, &b.FlightID, &b.SeatNumber, &b.Status,
		&b.TotalPriceCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: booking", domain.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) CreateConfirmed(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// The FOR UPDATE lock on the flight row is the per-flight exclusive
	// scope: every booking mutation for this flight starts here.
	var totalSeats int
	var basePriceCents int64
	err = tx.QueryRow(ctx, `
		SELECT a.total_seats, f.base_price_cents
		FROM flights f
		JOIN aircraft a ON a.id = f.aircraft_id
		WHERE f.id = $1
		FOR UPDATE OF f`, booking.FlightID).Scan(&totalSeats, &basePriceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: flight or aircraft", domain.ErrNotFound)
		}
		return err
	}

	var active int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE flight_id = $1 AND status IN ('CONFIRMED', 'CHECKED_IN')`,
		booking.FlightID).Scan(&active); err != nil {
		return err
	}
	if active >= totalSeats {
		return domain.ErrSeatsUnavailable
	}

	var seatHeld bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE flight_id = $1 AND seat_number = $2 AND status IN ('CONFIRMED', 'CHECKED_IN')
		)`, booking.FlightID, booking.SeatNumber).Scan(&seatHeld); err != nil {
		return err
	}
	if seatHeld {
		return fmt.Errorf("%w: %s", domain.ErrSeatTaken, booking.SeatNumber)
	}

	var refExists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE ref = $1)`,
		booking.Ref).Scan(&refExists); err != nil {
		return err
	}
	if refExists {
		return fmt.Errorf("%w: booking ref %s", domain.ErrConflict, booking.Ref)
	}

	booking.Status = domain.BookingStatusConfirmed
	booking.TotalPriceCents = basePriceCents
	if err := tx.QueryRow(ctx, `
		INSERT INTO bookings (ref, passenger_id, flight_id, seat_number, status, total_price_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		booking.Ref, booking.PassengerID, booking.FlightID, booking.SeatNumber,
		booking.Status, booking.TotalPriceCents).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByRef(ctx context.Context, ref string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE ref=$1`, ref)
	return scanBooking(row)
}

func (r *PGBookingRepository) Cancel(ctx context.Context, ref string) (*domain.Booking, error) {
	return r.transition(ctx, ref, func(b *domain.Booking) error {
		// Freeing a seat mutates the same shared counter as allocating
		// one, hence the same flight lock.
		if b.Status == domain.BookingStatusCancelled {
			return nil
		}
		b.Status = domain.BookingStatusCancelled
		return nil
	})
}

func (r *PGBookingRepository) CheckIn(ctx context.Context, ref string) (*domain.Booking, error) {
	return r.transition(ctx, ref, func(b *domain.Booking) error {
		if b.Status != domain.BookingStatusConfirmed {
			return fmt.Errorf("%w: cannot check in booking with status %s", domain.ErrInvalidState, b.Status)
		}
		b.Status = domain.BookingStatusCheckedIn
		return nil
	})
}

// transition loads the booking, locks its flight row, applies fn to decide
// the target status and persists the result. fn mutates b.Status in place;
// leaving it unchanged makes the call a no-op.
func (r *PGBookingRepository) transition(ctx context.Context, ref string, fn func(*domain.Booking) error) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var flightID int64
	if err := tx.QueryRow(ctx, `SELECT flight_id FROM bookings WHERE ref=$1`, ref).Scan(&flightID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: booking", domain.ErrNotFound)
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `SELECT 1 FROM flights WHERE id=$1 FOR UPDATE`, flightID); err != nil {
		return nil, err
	}

	// Re-read under the lock; the status may have moved before we got it.
	b, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE ref=$1`, ref))
	if err != nil {
		return nil, err
	}

	prev := b.Status
	if err := fn(b); err != nil {
		return nil, err
	}
	if b.Status == prev {
		return b, tx.Commit(ctx)
	}

	row := tx.QueryRow(ctx, `
		UPDATE bookings SET status=$1, updated_at=now()
		WHERE ref=$2
		RETURNING `+bookingColumns, b.Status, ref)
	updated, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	return updated, tx.Commit(ctx)
}

var _ BookingRepository = (*PGBookingRepository)(nil)
