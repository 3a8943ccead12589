package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
	"github.com/nekogravitycat/rental-booking-backend/internal/db"
	"github.com/nekogravitycat/rental-booking-backend/internal/metrics"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
)

const providerStripe = "stripe"

// Bookings is the part of the booking service payments drive.
type Bookings interface {
	GetByNumber(ctx context.Context, number string) (*booking.Booking, error)
	ConfirmPayment(ctx context.Context, number string) (*booking.Booking, error)
	CancelUnpaid(ctx context.Context, number string) (*booking.Booking, error)
}

type Config struct {
	Currency   string
	Timeout    time.Duration
	SuccessURL string
	CancelURL  string
}

// Coordinator links bookings to provider payments and applies webhook
// outcomes to booking state.
type Coordinator struct {
	cfg      Config
	gateway  Gateway
	repo     Repository
	tx       db.Transactor
	bookings Bookings
	logger   *zap.Logger
}

func NewCoordinator(cfg Config, gateway Gateway, repo Repository, tx db.Transactor, logger *zap.Logger) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{cfg: cfg, gateway: gateway, repo: repo, tx: tx, logger: logger}
}

// BindBookings sets the booking service. It is separate from NewCoordinator
// because the booking service itself needs the coordinator to open payments.
func (c *Coordinator) BindBookings(b Bookings) {
	c.bookings = b
}

func (c *Coordinator) gatewayCall(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	metrics.ObserveSince(metrics.PaymentGatewayLatency.WithLabelValues(op), start)
	if err != nil {
		metrics.PaymentGatewayErrorsTotal.WithLabelValues(op).Inc()
	}
	return err
}

// CreateIntent opens a payment intent for a new booking. Free bookings need
// no payment and get a nil intent.
func (c *Coordinator) CreateIntent(ctx context.Context, b *booking.Booking) (*booking.PaymentIntent, error) {
	if b.TotalAmountCents == 0 {
		return nil, nil
	}

	var intent *Intent
	err := c.gatewayCall(ctx, "create_intent", func(ctx context.Context) error {
		var err error
		intent, err = c.gateway.CreatePaymentIntent(ctx, IntentParams{
			AmountCents:   b.TotalAmountCents,
			Currency:      c.cfg.Currency,
			BookingID:     b.ID,
			BookingNumber: b.BookingNumber,
			ReceiptEmail:  b.CustomerEmail,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	p := &Payment{
		BookingID:   b.ID,
		Provider:    providerStripe,
		ProviderRef: intent.ID,
		AmountCents: b.TotalAmountCents,
		Currency:    c.cfg.Currency,
		Status:      StatusRequiresPayment,
	}
	if err := c.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("store payment: %w", err)
	}

	return &booking.PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// CreateCheckout opens a hosted checkout session for a pending booking.
func (c *Coordinator) CreateCheckout(ctx context.Context, number string) (*CheckoutSession, error) {
	b, err := c.bookings.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if b.Status != booking.StatusPending || b.TotalAmountCents == 0 {
		return nil, ErrNotPayable
	}

	var session *CheckoutSession
	err = c.gatewayCall(ctx, "create_checkout", func(ctx context.Context) error {
		var err error
		session, err = c.gateway.CreateCheckoutSession(ctx, CheckoutParams{
			AmountCents:   b.TotalAmountCents,
			Currency:      c.cfg.Currency,
			BookingID:     b.ID,
			BookingNumber: b.BookingNumber,
			Description:   fmt.Sprintf("Booking %s (%s %s)", b.BookingNumber, booking.FormatDate(b.Date), b.TimeSlot),
			CustomerEmail: b.CustomerEmail,
			SuccessURL:    c.cfg.SuccessURL,
			CancelURL:     c.cfg.CancelURL,
		})
		return err
	})
	if err != nil {
		return nil, apperror.BadGateway(err, "payment provider unavailable")
	}

	p := &Payment{
		BookingID:   b.ID,
		Provider:    providerStripe,
		ProviderRef: session.ID,
		AmountCents: b.TotalAmountCents,
		Currency:    c.cfg.Currency,
		Status:      StatusRequiresPayment,
	}
	if err := c.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("store payment: %w", err)
	}
	return session, nil
}

// HandleWebhook verifies and applies a provider event. Recording the event
// id and the resulting booking change commit together, so a redelivered
// event is a no-op and a failed one is retried by the provider.
func (c *Coordinator) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := c.gateway.ParseWebhook(payload, signature)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		c.logger.Warn("payment webhook rejected", zap.Int("payload_bytes", len(payload)), zap.Error(err))
		return err
	}

	outcome := "processed"
	err = c.tx.InTx(ctx, func(ctx context.Context) error {
		if evt.BookingNumber == "" && evt.PaymentIntentID != "" {
			number, err := c.repo.BookingNumberFor(ctx, evt.PaymentIntentID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			evt.BookingNumber = number
		}

		fresh, err := c.repo.RecordEvent(ctx, evt.ID, evt.Type, evt.BookingNumber)
		if err != nil {
			return err
		}
		if !fresh {
			outcome = "duplicate"
			return nil
		}
		return c.apply(ctx, evt)
	})
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(evt.Type, "failed").Inc()
		return err
	}

	metrics.WebhookEventsTotal.WithLabelValues(evt.Type, outcome).Inc()
	c.logger.Info("payment webhook handled",
		zap.String("event_id", evt.ID),
		zap.String("type", evt.Type),
		zap.String("booking_number", evt.BookingNumber),
		zap.String("outcome", outcome),
	)
	return nil
}

func (c *Coordinator) apply(ctx context.Context, evt *Event) error {
	var (
		status Status
		change func(context.Context, string) (*booking.Booking, error)
	)
	switch evt.Type {
	case EventIntentSucceeded, EventChargeSucceeded:
		status, change = StatusSucceeded, c.bookings.ConfirmPayment
	case EventIntentFailed:
		// The customer may retry with another payment method.
		status = StatusFailed
	case EventIntentCanceled:
		status, change = StatusCanceled, c.bookings.CancelUnpaid
	case EventChargeRefunded:
		status = StatusRefunded
	default:
		return nil
	}

	if evt.PaymentIntentID != "" {
		if err := c.repo.UpdateStatus(ctx, evt.PaymentIntentID, status); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	if change == nil {
		return nil
	}
	if evt.BookingNumber == "" {
		c.logger.Warn("payment event without booking reference",
			zap.String("event_id", evt.ID), zap.String("type", evt.Type))
		return nil
	}

	_, err := change(ctx, evt.BookingNumber)
	switch {
	case errors.Is(err, booking.ErrInvalidTransition), errors.Is(err, booking.ErrNotFound):
		c.logger.Warn("payment event does not apply to booking",
			zap.String("event_id", evt.ID),
			zap.String("type", evt.Type),
			zap.String("booking_number", evt.BookingNumber),
			zap.Error(err),
		)
		return nil
	case err != nil:
		return err
	}
	return nil
}
