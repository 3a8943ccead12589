package payment

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
)

var (
	ErrSignature  = apperror.Signature("invalid webhook signature")
	ErrNotPayable = apperror.BusinessRule(http.StatusConflict, "booking is not awaiting payment")
	ErrNotFound   = apperror.NotFound("payment not found")
)

type Status string

const (
	StatusRequiresPayment Status = "requires_payment"
	StatusSucceeded       Status = "succeeded"
	StatusFailed          Status = "failed"
	StatusCanceled        Status = "canceled"
	StatusRefunded        Status = "refunded"
)

// Payment is the local record of a provider payment attempt for a booking.
type Payment struct {
	ID          string
	BookingID   string
	Provider    string
	ProviderRef string // payment intent or checkout session id
	AmountCents int64
	Currency    string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
