package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/rental-booking-backend/internal/db"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	UpdateStatus(ctx context.Context, providerRef string, status Status) error
	// BookingNumberFor resolves the booking a provider payment belongs to.
	BookingNumberFor(ctx context.Context, providerRef string) (string, error)
	// RecordEvent stores a webhook event id. It reports false when the event
	// was already recorded.
	RecordEvent(ctx context.Context, eventID, eventType, bookingNumber string) (bool, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) Create(ctx context.Context, p *Payment) error {
	query, args, err := psql.Insert("public.payments").
		Columns("booking_id", "provider", "provider_ref", "amount_cents", "currency", "status").
		Values(p.BookingID, p.Provider, p.ProviderRef, p.AmountCents, p.Currency, p.Status).
		Suffix("ON CONFLICT (provider_ref) DO UPDATE SET updated_at = now() RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create payment query failed: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create payment failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, providerRef string, status Status) error {
	query, args, err := psql.Update("public.payments").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"provider_ref": providerRef}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update payment query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update payment failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) BookingNumberFor(ctx context.Context, providerRef string) (string, error) {
	const query = `
		SELECT b.booking_number
		FROM public.payments p
		JOIN public.bookings b ON b.id = p.booking_id
		WHERE p.provider_ref = $1
	`
	var number string
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, providerRef).Scan(&number); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("resolve payment booking failed: %w", err)
	}
	return number, nil
}

func (r *pgxRepository) RecordEvent(ctx context.Context, eventID, eventType, bookingNumber string) (bool, error) {
	const query = `
		INSERT INTO public.payment_events (event_id, event_type, booking_number)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (event_id) DO NOTHING
	`
	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, eventID, eventType, bookingNumber)
	if err != nil {
		return false, fmt.Errorf("record payment event failed: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
