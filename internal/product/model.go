package product

import (
	"time"

	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.NotFound("product not found")
	ErrEmptyName    = apperror.Validation("name cannot be empty")
	ErrInvalidPrice = apperror.Validation("price must not be negative")
	ErrInvalidStock = apperror.Validation("stock quantity must not be negative")
)

// Product is a rentable item with a finite stock of identical units.
type Product struct {
	ID            string
	Name          string
	Description   *string
	PriceCents    int64
	StockQuantity int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Filter defines parameters for listing products.
type Filter struct {
	Query      string
	ActiveOnly bool
	InStock    bool
	Page       int
	PageSize   int
	SortOrder  string
}
