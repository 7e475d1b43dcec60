package domain

import "time"

type Passenger struct {
	ID             int64     `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	PassportNumber string    `json:"passport_number,omitempty"`
	DateOfBirth    time.Time `json:"date_of_birth"`
}
