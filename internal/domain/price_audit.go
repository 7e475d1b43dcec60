package domain

import (
	"time"

	"github.com/google/uuid"
)

// PriceAuditRecord captures a single base-price transition of a flight.
// Records are append-only: written once, never updated or deleted.
type PriceAuditRecord struct {
	ID            uuid.UUID `json:"id"`
	FlightID      int64     `json:"flight_id"`
	OldPriceCents int64     `json:"old_price_cents"`
	NewPriceCents int64     `json:"new_price_cents"`
	Actor         string    `json:"actor"`
	ChangedAt     time.Time `json:"changed_at"`
}
