package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/rental-booking-backend/internal/db"
	"github.com/nekogravitycat/rental-booking-backend/internal/metrics"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
)

var (
	ErrProductNotFound   = apperror.NotFound("product not found or inactive")
	ErrInsufficientStock = apperror.Conflict("product is out of stock")
)

// Ledger tracks per-product stock. All mutations are single statements so
// concurrent reservations can never drive stock below zero. Both methods run
// on the transaction carried by ctx when there is one.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Reserve takes one unit of stock from an active product.
func (l *Ledger) Reserve(ctx context.Context, productID string) error {
	const query = `
		UPDATE public.products
		SET stock_quantity = stock_quantity - 1, updated_at = now()
		WHERE id = $1 AND is_active AND stock_quantity > 0
	`
	q := db.Conn(ctx, l.pool)

	ct, err := q.Exec(ctx, query, productID)
	if err != nil {
		return fmt.Errorf("reserve stock failed: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	// Nothing matched: tell a missing product apart from an empty shelf.
	if _, err := l.Stock(ctx, productID); err != nil {
		metrics.InventoryReservationsFailed.WithLabelValues("not_found").Inc()
		return err
	}
	metrics.InventoryReservationsFailed.WithLabelValues("insufficient_stock").Inc()
	return ErrInsufficientStock
}

// Release returns one unit. Callers guarantee it fires at most once per booking.
func (l *Ledger) Release(ctx context.Context, productID string) error {
	const query = `
		UPDATE public.products
		SET stock_quantity = stock_quantity + 1, updated_at = now()
		WHERE id = $1
	`
	ct, err := db.Conn(ctx, l.pool).Exec(ctx, query, productID)
	if err != nil {
		return fmt.Errorf("release stock failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	metrics.InventoryReleasesTotal.Inc()
	return nil
}

// Stock returns the current stock of an active product.
func (l *Ledger) Stock(ctx context.Context, productID string) (int, error) {
	const query = `
		SELECT stock_quantity
		FROM public.products
		WHERE id = $1 AND is_active
	`
	var stock int
	if err := db.Conn(ctx, l.pool).QueryRow(ctx, query, productID).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("get stock failed: %w", err)
	}
	return stock, nil
}
