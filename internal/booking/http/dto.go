package http

import (
	"math"
	"time"

	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/request"
)

var ErrInvalidDateRange = apperror.Validation("start_date must not be after end_date")

// toCents converts a decimal currency amount to integer minor units.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}

// BookingNumberURI binds the booking number path parameter.
type BookingNumberURI struct {
	Number string `uri:"number" binding:"required,max=64"`
}

// SlotsURI binds the available-slots path. "-" addresses the venue pool.
type SlotsURI struct {
	ProductID string `uri:"productId" binding:"required,uuid|eq=-"`
	Date      string `uri:"date" binding:"required"`
}

// ProductDateURI binds the per-product daily bookings path.
type ProductDateURI struct {
	ProductID string `uri:"productId" binding:"required,uuid"`
	Date      string `uri:"date" binding:"required"`
}

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	Status        string `form:"status" binding:"omitempty,oneof=pending confirmed completed cancelled no_show"`
	BookingType   string `form:"booking_type" binding:"omitempty,oneof=standard time_slot_only"`
	ProductID     string `form:"product_id" binding:"omitempty,uuid"`
	StartDate     string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate       string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	CustomerName  string `form:"customer_name" binding:"omitempty,max=200"`
	CustomerEmail string `form:"customer_email" binding:"omitempty,max=200"`
}

// Filter converts the query into a booking filter.
func (r *ListBookingsRequest) Filter() (booking.Filter, error) {
	r.Normalize()
	f := booking.Filter{
		Status:        booking.Status(r.Status),
		Type:          booking.Type(r.BookingType),
		ProductID:     r.ProductID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Page:          r.Page,
		PageSize:      r.Limit,
		SortOrder:     r.Order,
	}
	if r.StartDate != "" {
		d, err := booking.ParseDate(r.StartDate)
		if err != nil {
			return f, err
		}
		f.StartDate = &d
	}
	if r.EndDate != "" {
		d, err := booking.ParseDate(r.EndDate)
		if err != nil {
			return f, err
		}
		f.EndDate = &d
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return f, ErrInvalidDateRange
	}
	return f, nil
}

// SearchBookingsRequest matches q against booking number, customer name and email.
type SearchBookingsRequest struct {
	request.ListParams
	Query string `form:"q" binding:"required,max=200"`
}

type CreateBookingRequest struct {
	BookingType      string  `json:"booking_type" binding:"omitempty,oneof=standard time_slot_only"`
	ProductID        string  `json:"product_id" binding:"omitempty,uuid"`
	BookingDate      string  `json:"booking_date" binding:"required"`
	BookingTime      string  `json:"booking_time" binding:"omitempty"`
	TimeSlot         string  `json:"time_slot" binding:"required"`
	CustomerFullname string  `json:"customer_fullname" binding:"omitempty,max=200"`
	CustomerEmail    string  `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone    *string `json:"customer_phone" binding:"omitempty,max=50"`
	Participants     int     `json:"participants" binding:"required,min=1"`
	EmergencyContact *string `json:"emergency_contact" binding:"omitempty,max=200"`
	Notes            *string `json:"notes" binding:"omitempty,max=2000"`
	TotalAmount      float64 `json:"total_amount" binding:"min=0"`
}

func (r *CreateBookingRequest) ToServiceRequest(userID string) booking.CreateRequest {
	return booking.CreateRequest{
		UserID:           userID,
		Type:             booking.Type(r.BookingType),
		ProductID:        r.ProductID,
		Date:             r.BookingDate,
		Time:             r.BookingTime,
		TimeSlot:         r.TimeSlot,
		CustomerName:     r.CustomerFullname,
		CustomerEmail:    r.CustomerEmail,
		CustomerPhone:    r.CustomerPhone,
		Participants:     r.Participants,
		EmergencyContact: r.EmergencyContact,
		Notes:            r.Notes,
		TotalAmountCents: toCents(r.TotalAmount),
	}
}

type UpdateBookingRequest struct {
	BookingDate      *string  `json:"booking_date"`
	BookingTime      *string  `json:"booking_time"`
	TimeSlot         *string  `json:"time_slot"`
	CustomerFullname *string  `json:"customer_fullname" binding:"omitempty,max=200"`
	CustomerEmail    *string  `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone    *string  `json:"customer_phone" binding:"omitempty,max=50"`
	Participants     *int     `json:"participants" binding:"omitempty,min=1"`
	EmergencyContact *string  `json:"emergency_contact" binding:"omitempty,max=200"`
	Notes            *string  `json:"notes" binding:"omitempty,max=2000"`
	TotalAmount      *float64 `json:"total_amount" binding:"omitempty,min=0"`
}

func (r *UpdateBookingRequest) ToServiceRequest() booking.UpdateRequest {
	req := booking.UpdateRequest{
		Date:             r.BookingDate,
		Time:             r.BookingTime,
		TimeSlot:         r.TimeSlot,
		CustomerName:     r.CustomerFullname,
		CustomerEmail:    r.CustomerEmail,
		CustomerPhone:    r.CustomerPhone,
		Participants:     r.Participants,
		EmergencyContact: r.EmergencyContact,
		Notes:            r.Notes,
	}
	if r.TotalAmount != nil {
		cents := toCents(*r.TotalAmount)
		req.TotalAmountCents = &cents
	}
	return req
}

// ProductTag is the short product reference embedded in bookings.
type ProductTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BookingResponse struct {
	ID               string      `json:"id"`
	BookingNumber    string      `json:"booking_number"`
	BookingType      string      `json:"booking_type"`
	Product          *ProductTag `json:"product"`
	UserID           *string     `json:"user_id"`
	BookingDate      string      `json:"booking_date"`
	BookingTime      *string     `json:"booking_time"`
	TimeSlot         string      `json:"time_slot"`
	CustomerFullname string      `json:"customer_fullname"`
	CustomerEmail    string      `json:"customer_email"`
	CustomerPhone    *string     `json:"customer_phone"`
	Participants     int         `json:"participants"`
	EmergencyContact *string     `json:"emergency_contact"`
	Notes            *string     `json:"notes"`
	TotalAmount      float64     `json:"total_amount"`
	Status           string      `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	CancelledAt      *time.Time  `json:"cancelled_at"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:               b.ID,
		BookingNumber:    b.BookingNumber,
		BookingType:      string(b.Type),
		UserID:           optional(b.UserID),
		BookingDate:      booking.FormatDate(b.Date),
		BookingTime:      optional(b.Time),
		TimeSlot:         b.TimeSlot,
		CustomerFullname: b.CustomerName,
		CustomerEmail:    b.CustomerEmail,
		CustomerPhone:    b.CustomerPhone,
		Participants:     b.Participants,
		EmergencyContact: b.EmergencyContact,
		Notes:            b.Notes,
		TotalAmount:      fromCents(b.TotalAmountCents),
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
		CancelledAt:      b.CancelledAt,
	}
	if b.ProductID != "" {
		resp.Product = &ProductTag{ID: b.ProductID, Name: b.ProductName}
	}
	return resp
}

func newBookingResponses(bookings []*booking.Booking) []BookingResponse {
	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}
	return items
}

type CreateBookingResponse struct {
	BookingNumber   string          `json:"booking_number"`
	ClientSecret    string          `json:"client_secret,omitempty"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	Booking         BookingResponse `json:"booking"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type AvailableSlotsResponse struct {
	ProductID      *string  `json:"product_id"`
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
}

type DeleteBookingResponse struct {
	BookingNumber string `json:"booking_number"`
}
