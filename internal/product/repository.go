package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, filter Filter) ([]*Product, int, error)
	Update(ctx context.Context, p *Product) error
	// AdjustStock adds delta to the stock in one statement and returns the new
	// count. It never takes stock below zero.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const productColumns = "id, name, description, price_cents, stock_quantity, is_active, created_at, updated_at"

func scanProduct(row pgx.Row, extra ...any) (*Product, error) {
	var p Product
	dest := []any{&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.StockQuantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgxRepository) Create(ctx context.Context, p *Product) error {
	const query = `
		INSERT INTO public.products (name, description, price_cents, stock_quantity, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, p.Name, p.Description, p.PriceCents, p.StockQuantity, p.IsActive).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	query := "SELECT " + productColumns + " FROM public.products WHERE id = $1"

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product failed: %w", err)
	}
	return p, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Product, int, error) {
	query := psql.Select(productColumns, "count(*) OVER() as total_count").From("public.products")

	if filter.ActiveOnly {
		query = query.Where(squirrel.Eq{"is_active": true})
	}
	if filter.InStock {
		query = query.Where(squirrel.Gt{"stock_quantity": 0})
	}
	if filter.Query != "" {
		query = query.Where(squirrel.ILike{"name": "%" + filter.Query + "%"})
	}

	orderDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "ASC") {
		orderDir = "ASC"
	}
	query = query.OrderBy("created_at " + orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list products query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products failed: %w", err)
	}
	defer rows.Close()

	var result []*Product
	var total int
	for rows.Next() {
		p, err := scanProduct(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product failed: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list products failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, p *Product) error {
	const query = `
		UPDATE public.products
		SET name = $1, description = $2, price_cents = $3, is_active = $4, updated_at = now()
		WHERE id = $5
		RETURNING stock_quantity, updated_at
	`
	err := r.pool.QueryRow(ctx, query, p.Name, p.Description, p.PriceCents, p.IsActive, p.ID).
		Scan(&p.StockQuantity, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update product failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	const query = `
		UPDATE public.products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1 AND stock_quantity + $2 >= 0
		RETURNING stock_quantity
	`
	var stock int
	if err := r.pool.QueryRow(ctx, query, id, delta).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, err := r.GetByID(ctx, id); err != nil {
				return 0, err
			}
			return 0, ErrInvalidStock
		}
		return 0, fmt.Errorf("adjust stock failed: %w", err)
	}
	return stock, nil
}
