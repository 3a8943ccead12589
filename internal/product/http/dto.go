package http

import (
	"math"
	"time"

	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/rental-booking-backend/internal/product"
)

type ProductResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewResponse(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         float64(p.PriceCents) / 100,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ListProductsRequest defines query parameters for listing products.
type ListProductsRequest struct {
	request.ListParams
	Query   string `form:"q" binding:"omitempty,max=200"`
	InStock bool   `form:"in_stock"`
}

type CreateRequest struct {
	Name          string  `json:"name" binding:"required,max=200"`
	Description   *string `json:"description" binding:"omitempty,max=2000"`
	Price         float64 `json:"price" binding:"min=0"`
	StockQuantity int     `json:"stock_quantity" binding:"min=0"`
}

type UpdateRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=200"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	IsActive    *bool    `json:"is_active"`
}

type RestockRequest struct {
	Delta int `json:"delta" binding:"required"`
}
