package notification

import (
	"encoding/json"
	"time"

	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
)

type Kind string

const (
	KindConfirmation Kind = "booking.confirmed"
	KindCancellation Kind = "booking.cancelled"
)

// Message is the JSON body consumers render customer mail from.
type Message struct {
	Kind          Kind      `json:"kind"`
	BookingNumber string    `json:"booking_number"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	ProductName   string    `json:"product_name,omitempty"`
	BookingDate   string    `json:"booking_date"`
	TimeSlot      string    `json:"time_slot"`
	Participants  int       `json:"participants"`
	AmountCents   int64     `json:"total_amount_cents"`
	SentAt        time.Time `json:"sent_at"`
}

func NewMessage(kind Kind, b *booking.Booking, now time.Time) Message {
	return Message{
		Kind:          kind,
		BookingNumber: b.BookingNumber,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		ProductName:   b.ProductName,
		BookingDate:   booking.FormatDate(b.Date),
		TimeSlot:      b.TimeSlot,
		Participants:  b.Participants,
		AmountCents:   b.TotalAmountCents,
		SentAt:        now.UTC(),
	}
}

func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
