package booking

import (
	"context"
	"time"
)

// Inventory is the stock counter behind standard bookings.
type Inventory interface {
	Reserve(ctx context.Context, productID string) error
	Release(ctx context.Context, productID string) error
	Stock(ctx context.Context, productID string) (int, error)
}

// PaymentIntent is what the caller needs to complete payment client side.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentInitiator opens a payment for a freshly created booking.
type PaymentInitiator interface {
	CreateIntent(ctx context.Context, b *Booking) (*PaymentIntent, error)
}

// Notifier delivers customer notifications. Failures never affect booking state.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, b *Booking) error
	SendBookingCancellation(ctx context.Context, b *Booking) error
}

// LifecycleEvent is published after every committed booking change.
type LifecycleEvent struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	BookingType   Type      `json:"booking_type"`
	ProductID     string    `json:"product_id,omitempty"`
	BookingDate   string    `json:"booking_date"`
	TimeSlot      string    `json:"time_slot"`
	Status        Status    `json:"status"`
	PreviousState Status    `json:"previous_status,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const (
	EventCreated     = "booking.created"
	EventUpdated     = "booking.updated"
	EventTransitions = "booking.status_changed"
)

// EventPublisher fans lifecycle events out to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, e LifecycleEvent) error
}

// AvailabilityCache caches ListAvailableSlots results. It is never consulted
// when deciding whether a slot can be booked.
//
// GetSlots also returns the key's generation. SetSlots stores only while the
// generation is unchanged, so a listing read before an Invalidate is dropped.
type AvailabilityCache interface {
	GetSlots(ctx context.Context, productID string, date time.Time) ([]TimeSlot, int64, bool)
	SetSlots(ctx context.Context, productID string, date time.Time, gen int64, slots []TimeSlot)
	Invalidate(ctx context.Context, productID string, date time.Time)
}
