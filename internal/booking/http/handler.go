package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/rental-booking-backend/internal/auth"
	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
	"github.com/nekogravitycat/rental-booking-backend/internal/payment"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/response"
)

// venuePool is the product path segment addressing time_slot_only availability.
const venuePool = "-"

var (
	ErrForbidden    = apperror.New(http.StatusForbidden, "booking belongs to another account")
	ErrAmountLocked = apperror.New(http.StatusForbidden, "only staff can change the booking amount")
)

// CheckoutCreator opens hosted checkout sessions.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, number string) (*payment.CheckoutSession, error)
}

type Handler struct {
	service  booking.Service
	checkout CheckoutCreator
}

func NewHandler(service booking.Service, checkout CheckoutCreator) *Handler {
	return &Handler{
		service:  service,
		checkout: checkout,
	}
}

// authorize allows admins, guests on guest bookings, and the owning account.
// The booking number itself is the guest's credential.
func authorize(c *gin.Context, b *booking.Booking) error {
	if b.UserID == "" || auth.IsAdmin(c) || auth.GetUserID(c) == b.UserID {
		return nil
	}
	return ErrForbidden
}

// load fetches the booking named in the path and checks the caller may see it.
func (h *Handler) load(c *gin.Context) (*booking.Booking, bool) {
	var uri BookingNumberURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return nil, false
	}

	b, err := h.service.GetByNumber(c.Request.Context(), uri.Number)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if err := authorize(c, b); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return b, true
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), req.ToServiceRequest(auth.GetUserID(c)))
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := CreateBookingResponse{
		BookingNumber: res.Booking.BookingNumber,
		Booking:       NewBookingResponse(res.Booking),
	}
	if res.Payment != nil {
		resp.ClientSecret = res.Payment.ClientSecret
		resp.PaymentIntentID = res.Payment.ID
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Get(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Update(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}

	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	// The amount backs an open payment intent; customers cannot reprice it.
	if req.TotalAmount != nil && !auth.IsAdmin(c) {
		response.Error(c, ErrAmountLocked)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), b.BookingNumber, req.ToServiceRequest())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(updated))
}

func (h *Handler) Cancel(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}

	cancelled, err := h.service.Cancel(c.Request.Context(), b.BookingNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(cancelled))
}

func (h *Handler) Checkout(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}

	session, err := h.checkout.CreateCheckout(c.Request.Context(), b.BookingNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutResponse{SessionID: session.ID, URL: session.URL})
}

func (h *Handler) Delete(c *gin.Context) {
	var uri BookingNumberURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.service.Remove(c.Request.Context(), uri.Number); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, DeleteBookingResponse{BookingNumber: uri.Number})
}

// transition builds an admin handler for a single lifecycle operation.
func (h *Handler) transition(op func(ctx context.Context, number string) (*booking.Booking, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var uri BookingNumberURI
		if err := c.ShouldBindUri(&uri); err != nil {
			response.BindError(c, err)
			return
		}

		b, err := op(c.Request.Context(), uri.Number)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, NewBookingResponse(b))
	}
}

func (h *Handler) Confirm(c *gin.Context)    { h.transition(h.service.Confirm)(c) }
func (h *Handler) Complete(c *gin.Context)   { h.transition(h.service.Complete)(c) }
func (h *Handler) MarkNoShow(c *gin.Context) { h.transition(h.service.MarkNoShow)(c) }

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	filter, err := req.Filter()
	if err != nil {
		response.Error(c, err)
		return
	}

	bookings, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(newBookingResponses(bookings), req.Page, req.Limit, total))
}

func (h *Handler) Search(c *gin.Context) {
	var req SearchBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}
	req.Normalize()

	bookings, total, err := h.service.Search(c.Request.Context(), booking.Filter{
		Query:     req.Query,
		Page:      req.Page,
		PageSize:  req.Limit,
		SortOrder: req.Order,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": newBookingResponses(bookings), "count": total})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ByDate(c *gin.Context) {
	h.daily(c, "")
}

func (h *Handler) ByProductAndDate(c *gin.Context) {
	var uri ProductDateURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}
	h.daily(c, uri.ProductID)
}

func (h *Handler) daily(c *gin.Context, productID string) {
	bookings, err := h.service.DailyBookings(c.Request.Context(), c.Param("date"), productID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": newBookingResponses(bookings), "count": len(bookings)})
}

func (h *Handler) AvailableSlots(c *gin.Context) {
	var uri SlotsURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}
	productID, date := uri.ProductID, uri.Date
	if productID == venuePool {
		productID = ""
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), productID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	labels := make([]string, len(slots))
	for i, s := range slots {
		labels[i] = s.Label()
	}
	c.JSON(http.StatusOK, AvailableSlotsResponse{
		ProductID:      optional(productID),
		Date:           date,
		AvailableSlots: labels,
	})
}
