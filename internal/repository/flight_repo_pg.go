package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vkazmir/flightdesk/internal/domain"
)

type FlightRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	// AvailableSeats derives the remaining capacity of a flight:
	// aircraft.total_seats minus the count of active bookings. The read is
	// best-effort; the booking engine recomputes under its exclusive scope.
	AvailableSeats(ctx context.Context, flightID int64) (int, error)
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.FlightAvailability, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, airline_id, aircraft_id, departure_airport_id, arrival_airport_id, departure_time, arrival_time, base_price_cents, status, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.AirlineID, &f.AircraftID, &f.DepartureAirportID, &f.ArrivalAirportID,
		&f.DepartureTime, &f.ArrivalTime, &f.BasePriceCents, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: flight", domain.ErrNotFound)
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	return scanFlight(row)
}

func (r *PGFlightRepository) AvailableSeats(ctx context.Context, flightID int64) (int, error) {
	row := r.db.QueryRow(ctx, `
		SELECT a.total_seats - (
			SELECT COUNT(*) FROM bookings b
			WHERE b.flight_id = f.id AND b.status IN ('CONFIRMED', 'CHECKED_IN')
		)
		FROM flights f
		JOIN aircraft a ON a.id = f.aircraft_id
		WHERE f.id = $1`, flightID)

	var available int
	if err := row.Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: flight or aircraft", domain.ErrNotFound)
		}
		return 0, err
	}
	return available, nil
}

func (r *PGFlightRepository) Search(ctx context.Context, q domain.SearchQuery) ([]domain.FlightAvailability, error) {
	from, to := q.DayWindow()
	rows, err := r.db.Query(ctx, `
		SELECT f.id, al.name, dep.city, arr.city, f.departure_time, f.arrival_time,
		       f.base_price_cents, f.status,
		       a.total_seats - COUNT(b.ref) AS available_seats
		FROM flights f
		JOIN airlines al ON al.id = f.airline_id
		JOIN aircraft a ON a.id = f.aircraft_id
		JOIN airports dep ON dep.id = f.departure_airport_id
		JOIN airports arr ON arr.id = f.arrival_airport_id
		LEFT JOIN bookings b ON b.flight_id = f.id AND b.status IN ('CONFIRMED', 'CHECKED_IN')
		WHERE dep.city = $1 AND arr.city = $2
		  AND f.departure_time >= $3 AND f.departure_time < $4
		  AND f.status <> 'CANCELLED'
		GROUP BY f.id, al.name, dep.city, arr.city, a.total_seats
		HAVING a.total_seats - COUNT(b.ref) > 0
		ORDER BY f.departure_time`,
		q.DepartureCity, q.ArrivalCity, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.FlightAvailability, 0)
	for rows.Next() {
		var fa domain.FlightAvailability
		if err := rows.Scan(&fa.FlightID, &fa.AirlineName, &fa.DepartureCity, &fa.ArrivalCity,
			&fa.DepartureTime, &fa.ArrivalTime, &fa.BasePriceCents, &fa.Status, &fa.AvailableSeats); err != nil {
			return nil, err
		}
		results = append(results, fa)
	}
	return results, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
