package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCheckedIn BookingStatus = "CHECKED_IN"
)

// Active reports whether the booking counts against flight capacity.
func (s BookingStatus) Active() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCheckedIn
}

type Booking struct {
	Ref             string        `json:"ref"`
	PassengerID     int64         `json:"passenger_id"`
	FlightID        int64         `json:"flight_id"`
	SeatNumber      string        `json:"seat_number"`
	Status          BookingStatus `json:"status"`
	TotalPriceCents int64         `json:"total_price_cents"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
