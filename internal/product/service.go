package product

import (
	"context"
	"strings"
)

type CreateRequest struct {
	Name          string
	Description   *string
	PriceCents    int64
	StockQuantity int
}

type UpdateRequest struct {
	Name        *string
	Description *string
	PriceCents  *int64
	IsActive    *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, filter Filter) ([]*Product, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Product, error)
	// Restock adds (or with a negative delta, writes off) units of stock.
	Restock(ctx context.Context, id string, delta int) (*Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if req.PriceCents < 0 {
		return nil, ErrInvalidPrice
	}
	if req.StockQuantity < 0 {
		return nil, ErrInvalidStock
	}

	p := &Product{
		Name:          name,
		Description:   req.Description,
		PriceCents:    req.PriceCents,
		StockQuantity: req.StockQuantity,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Product, int, error) {
	return s.repo.List(ctx, filter)
}

// Update edits catalog fields. Stock only moves through Restock and the
// inventory ledger.
func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		p.Name = name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, ErrInvalidPrice
		}
		p.PriceCents = *req.PriceCents
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Restock(ctx context.Context, id string, delta int) (*Product, error) {
	if _, err := s.repo.AdjustStock(ctx, id, delta); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
