// Package paymenttest provides an in-memory payment repository and a fake
// gateway for tests.
package paymenttest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nekogravitycat/rental-booking-backend/internal/payment"
)

// ValidSignature is the only signature Gateway accepts.
const ValidSignature = "t=1,v1=valid"

// WebhookPayload is the JSON body Gateway.ParseWebhook understands.
type WebhookPayload struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	PaymentIntentID string `json:"payment_intent"`
	BookingNumber   string `json:"booking_number"`
}

func (p WebhookPayload) Bytes() []byte {
	b, _ := json.Marshal(p)
	return b
}

type Gateway struct {
	mu        sync.Mutex
	Err       error
	Intents   []payment.IntentParams
	Checkouts []payment.CheckoutParams
}

func (g *Gateway) CreatePaymentIntent(_ context.Context, p payment.IntentParams) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.Intents = append(g.Intents, p)
	return &payment.Intent{ID: "pi_" + p.BookingNumber, ClientSecret: "pi_" + p.BookingNumber + "_secret"}, nil
}

func (g *Gateway) CreateCheckoutSession(_ context.Context, p payment.CheckoutParams) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.Checkouts = append(g.Checkouts, p)
	id := "cs_" + p.BookingNumber
	return &payment.CheckoutSession{ID: id, URL: "https://checkout.test/" + id}, nil
}

func (g *Gateway) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if signature != ValidSignature {
		return nil, payment.ErrSignature
	}
	var p WebhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	return &payment.Event{
		ID:              p.ID,
		Type:            p.Type,
		PaymentIntentID: p.PaymentIntentID,
		BookingNumber:   p.BookingNumber,
	}, nil
}

// Repository is an in-memory payment.Repository. Register it with
// bookingtest.Store.Track so it rolls back with booking transactions.
type Repository struct {
	mu       sync.Mutex
	payments map[string]*payment.Payment // by provider ref
	numbers  map[string]string           // booking id -> number
	events   map[string]string           // event id -> type

	// FailUpdates makes the next n UpdateStatus calls fail.
	FailUpdates int
}

func NewRepository() *Repository {
	return &Repository{
		payments: make(map[string]*payment.Payment),
		numbers:  make(map[string]string),
		events:   make(map[string]string),
	}
}

func (r *Repository) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	payments := make(map[string]*payment.Payment, len(r.payments))
	for k, p := range r.payments {
		cp := *p
		payments[k] = &cp
	}
	events := make(map[string]string, len(r.events))
	for k, v := range r.events {
		events[k] = v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.payments, r.events = payments, events
	}
}

// LinkBooking tells the repository which number a booking id carries, the
// way the SQL join does.
func (r *Repository) LinkBooking(bookingID, number string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numbers[bookingID] = number
}

func (r *Repository) Get(providerRef string) (*payment.Payment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[providerRef]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (r *Repository) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *Repository) Create(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.payments[p.ProviderRef]; ok {
		p.ID = existing.ID
		return nil
	}
	p.ID = uuid.NewString()
	cp := *p
	r.payments[p.ProviderRef] = &cp
	return nil
}

func (r *Repository) UpdateStatus(_ context.Context, providerRef string, status payment.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailUpdates > 0 {
		r.FailUpdates--
		return errors.New("payments table unavailable")
	}
	p, ok := r.payments[providerRef]
	if !ok {
		return payment.ErrNotFound
	}
	p.Status = status
	return nil
}

func (r *Repository) BookingNumberFor(_ context.Context, providerRef string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[providerRef]
	if !ok {
		return "", payment.ErrNotFound
	}
	number, ok := r.numbers[p.BookingID]
	if !ok {
		return "", payment.ErrNotFound
	}
	return number, nil
}

func (r *Repository) RecordEvent(_ context.Context, eventID, eventType, _ string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[eventID]; ok {
		return false, nil
	}
	r.events[eventID] = eventType
	return true, nil
}
