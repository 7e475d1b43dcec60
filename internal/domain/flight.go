package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
	FlightStatusBoarding  FlightStatus = "BOARDING"
	FlightStatusInAir     FlightStatus = "IN_AIR"
	FlightStatusLanded    FlightStatus = "LANDED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
)

type Flight struct {
	ID                 int64        `json:"id"`
	AirlineID          int64        `json:"airline_id"`
	AircraftID         int64        `json:"aircraft_id"`
	DepartureAirportID int64        `json:"departure_airport_id"`
	ArrivalAirportID   int64        `json:"arrival_airport_id"`
	DepartureTime      time.Time    `json:"departure_time"`
	ArrivalTime        time.Time    `json:"arrival_time"`
	BasePriceCents     int64        `json:"base_price_cents"`
	Status             FlightStatus `json:"status"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// FlightAvailability is the search-facing projection of a flight with its
// remaining seat count derived from active bookings.
type FlightAvailability struct {
	FlightID       int64        `json:"flight_id"`
	AirlineName    string       `json:"airline_name"`
	DepartureCity  string       `json:"departure_city"`
	ArrivalCity    string       `json:"arrival_city"`
	DepartureTime  time.Time    `json:"departure_time"`
	ArrivalTime    time.Time    `json:"arrival_time"`
	BasePriceCents int64        `json:"base_price_cents"`
	Status         FlightStatus `json:"status"`
	AvailableSeats int          `json:"available_seats"`
}

// SearchQuery selects flights departing between two cities on a given
// calendar day. The day window is evaluated in UTC.
type SearchQuery struct {
	DepartureCity string
	ArrivalCity   string
	Date          time.Time
}

func (q SearchQuery) DayWindow() (time.Time, time.Time) {
	day := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
	return day, day.Add(24 * time.Hour)
}
