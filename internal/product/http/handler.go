package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/rental-booking-backend/internal/auth"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/rental-booking-backend/internal/product"
)

type Handler struct {
	service product.Service
}

func NewHandler(service product.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}
	req.Normalize()

	filter := product.Filter{
		Query: req.Query,
		// Inactive products are only listed for staff.
		ActiveOnly: !auth.IsAdmin(c),
		InStock:    req.InStock,
		Page:       req.Page,
		PageSize:   req.Limit,
		SortOrder:  req.Order,
	}

	products, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ProductResponse, len(products))
	for i, p := range products {
		items[i] = NewResponse(p)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.Limit, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !p.IsActive && !auth.IsAdmin(c) {
		response.Error(c, product.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, NewResponse(p))
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), product.CreateRequest{
		Name:          req.Name,
		Description:   req.Description,
		PriceCents:    toCents(req.Price),
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewResponse(p))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	upd := product.UpdateRequest{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.Price != nil {
		cents := toCents(*req.Price)
		upd.PriceCents = &cents
	}

	p, err := h.service.Update(c.Request.Context(), uri.ID, upd)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(p))
}

func (h *Handler) Restock(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}
	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	p, err := h.service.Restock(c.Request.Context(), uri.ID, req.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(p))
}
