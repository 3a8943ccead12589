package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.NotFound("booking not found")
	ErrSlotConflict      = apperror.Conflict("time slot already booked")
	ErrNumberExhausted   = apperror.Conflict("could not allocate a unique booking number")
	ErrInvalidTransition = apperror.BusinessRule(http.StatusConflict, "invalid status transition")
	ErrTerminal          = apperror.BusinessRule(http.StatusConflict, "booking can no longer be modified")
	ErrNotCancellable    = apperror.BusinessRule(http.StatusBadRequest, "booking cannot be cancelled in its current status")
	ErrNoShowTooEarly    = apperror.BusinessRule(http.StatusBadRequest, "booking has not started yet")

	ErrInvalidType         = apperror.Validation("invalid booking type")
	ErrProductRequired     = apperror.Validation("product_id is required for standard bookings")
	ErrInvalidDate         = apperror.Validation("booking date must be formatted as YYYY-MM-DD")
	ErrDateInPast          = apperror.Validation("cannot create booking in the past")
	ErrInvalidTime         = apperror.Validation("booking time must be formatted as HH:MM")
	ErrInvalidSlot         = apperror.Validation("time slot is not part of the slot catalog")
	ErrCustomerRequired    = apperror.Validation("customer full name and email are required")
	ErrInvalidParticipants = apperror.Validation("participants must be at least 1")
	ErrInvalidAmount       = apperror.Validation("total amount must not be negative")
	ErrInvalidNumber       = apperror.Validation("malformed booking number")

	// ErrNumberTaken is returned by Repository.Create when the booking number
	// collides. The service retries with a fresh number.
	ErrNumberTaken = errors.New("booking number already taken")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
	StatusDeleted   Status = "deleted"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow, StatusDeleted,
}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsActive reports whether the booking holds its slot and inventory.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) IsTerminal() bool {
	return s.Valid() && !s.IsActive()
}

type Type string

const (
	TypeStandard     Type = "standard"
	TypeTimeSlotOnly Type = "time_slot_only"
)

func (t Type) Valid() bool {
	return t == TypeStandard || t == TypeTimeSlotOnly
}

type Booking struct {
	ID               string
	BookingNumber    string
	Type             Type
	ProductID        string // empty for time_slot_only
	ProductName      string
	UserID           string // empty for guests
	Date             time.Time
	Time             string // optional HH:MM
	TimeSlot         string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    *string
	Participants     int
	EmergencyContact *string
	Notes            *string
	TotalAmountCents int64
	Status           Status
	InventoryHeld    bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CancelledAt      *time.Time
	DeletedAt        *time.Time
}

// StartsAt returns the moment the booking begins in loc: the explicit
// booking time when present, else the start of its slot.
func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	clock := b.Time
	if clock == "" {
		slot, err := ParseTimeSlot(b.TimeSlot)
		if err != nil {
			return time.Time{}, err
		}
		clock = slot.Start
	}
	tod, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), tod.Hour(), tod.Minute(), 0, 0, loc), nil
}

type Filter struct {
	Status        Status
	Type          Type
	ProductID     string
	StartDate     *time.Time
	EndDate       *time.Time
	CustomerName  string
	CustomerEmail string
	Query         string // matches number, name or email
	Page          int
	PageSize      int
	SortOrder     string // ASC or DESC on created_at
}

type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	NoShow    int `json:"no_show"`
}

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

func parseClock(s string) (string, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return "", ErrInvalidTime
	}
	return t.Format(clockLayout), nil
}
