package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
)

var ErrNotFound = apperror.NotFound("customer not found")

// Ref is the contact record the identity subsystem exposes for a user.
type Ref struct {
	ID          string
	DisplayName string
	Email       string
}

// Directory resolves a caller identity to a customer contact record.
type Directory interface {
	Lookup(ctx context.Context, id string) (*Ref, error)
}

type pgxDirectory struct {
	pool *pgxpool.Pool
}

// NewPgxDirectory reads customers from the identity subsystem's users table.
func NewPgxDirectory(pool *pgxpool.Pool) Directory {
	return &pgxDirectory{pool: pool}
}

func (d *pgxDirectory) Lookup(ctx context.Context, id string) (*Ref, error) {
	const query = `
		SELECT u.id, COALESCE(u.display_name, ''), u.email
		FROM public.users u
		WHERE u.id = $1 AND u.is_active = true
	`

	var ref Ref
	if err := d.pool.QueryRow(ctx, query, id).Scan(&ref.ID, &ref.DisplayName, &ref.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup customer failed: %w", err)
	}
	return &ref, nil
}
