package payment

import "context"

// Webhook event types acted upon. Everything else is recorded and ignored.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
	EventChargeSucceeded = "charge.succeeded"
	EventChargeRefunded  = "charge.refunded"
)

// metadataBookingNumber correlates provider objects with bookings.
const metadataBookingNumber = "booking_number"

type IntentParams struct {
	AmountCents   int64
	Currency      string
	BookingID     string
	BookingNumber string
	ReceiptEmail  string
}

type Intent struct {
	ID           string
	ClientSecret string
}

type CheckoutParams struct {
	AmountCents   int64
	Currency      string
	BookingID     string
	BookingNumber string
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified webhook notification reduced to what the coordinator needs.
type Event struct {
	ID              string
	Type            string
	PaymentIntentID string
	BookingNumber   string
}

// Gateway is the payment provider.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, p IntentParams) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	// ParseWebhook verifies the signature and decodes the event. It returns
	// ErrSignature when verification fails.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
