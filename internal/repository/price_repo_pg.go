package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vkazmir/flightdesk/internal/domain"
)

type PriceRepository interface {
	// SetPrice updates the flight's base price and appends the matching
	// audit record in one transaction. When the new price equals the
	// current one nothing is written and nil is returned for the record.
	SetPrice(ctx context.Context, flightID int64, newPriceCents int64, actor string) (*domain.PriceAuditRecord, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.PriceAuditRecord, error)
	ListChangedSince(ctx context.Context, since time.Time) ([]domain.PriceAuditRecord, error)
}

type PGPriceRepository struct {
	db *pgxpool.Pool
}

func NewPriceRepository(db *pgxpool.Pool) PriceRepository {
	return &PGPriceRepository{db: db}
}

func (r *PGPriceRepository) SetPrice(ctx context.Context, flightID int64, newPriceCents int64, actor string) (*domain.PriceAuditRecord, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var oldPriceCents int64
	err = tx.QueryRow(ctx, `SELECT base_price_cents FROM flights WHERE id=$1 FOR UPDATE`, flightID).Scan(&oldPriceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: flight", domain.ErrNotFound)
		}
		return nil, err
	}

	if oldPriceCents == newPriceCents {
		return nil, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `UPDATE flights SET base_price_cents=$1, updated_at=now() WHERE id=$2`,
		newPriceCents, flightID); err != nil {
		return nil, err
	}

	rec := &domain.PriceAuditRecord{
		ID:            uuid.New(),
		FlightID:      flightID,
		OldPriceCents: oldPriceCents,
		NewPriceCents: newPriceCents,
		Actor:         actor,
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO price_audit (id, flight_id, old_price_cents, new_price_cents, actor)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING changed_at`,
		rec.ID, rec.FlightID, rec.OldPriceCents, rec.NewPriceCents, rec.Actor).
		Scan(&rec.ChangedAt); err != nil {
		return nil, err
	}

	return rec, tx.Commit(ctx)
}

func (r *PGPriceRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.PriceAuditRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, flight_id, old_price_cents, new_price_cents, actor, changed_at
		FROM price_audit
		WHERE flight_id=$1
		ORDER BY changed_at`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.PriceAuditRecord, 0)
	for rows.Next() {
		var rec domain.PriceAuditRecord
		if err := rows.Scan(&rec.ID, &rec.FlightID, &rec.OldPriceCents, &rec.NewPriceCents, &rec.Actor, &rec.ChangedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *PGPriceRepository) ListChangedSince(ctx context.Context, since time.Time) ([]domain.PriceAuditRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, flight_id, old_price_cents, new_price_cents, actor, changed_at
		FROM price_audit
		WHERE changed_at >= $1
		ORDER BY changed_at`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.PriceAuditRecord, 0)
	for rows.Next() {
		var rec domain.PriceAuditRecord
		if err := rows.Scan(&rec.ID, &rec.FlightID, &rec.OldPriceCents, &rec.NewPriceCents, &rec.Actor, &rec.ChangedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ PriceRepository = (*PGPriceRepository)(nil)
