package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
)

// LogSink writes notifications to the log instead of a broker. Used when
// RABBITMQ_URL is unset.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) write(kind Kind, b *booking.Booking) {
	s.logger.Info("notification",
		zap.String("kind", string(kind)),
		zap.String("booking_number", b.BookingNumber),
		zap.String("customer_email", b.CustomerEmail),
		zap.String("time_slot", b.TimeSlot),
	)
}

func (s *LogSink) SendBookingConfirmation(_ context.Context, b *booking.Booking) error {
	s.write(KindConfirmation, b)
	return nil
}

func (s *LogSink) SendBookingCancellation(_ context.Context, b *booking.Booking) error {
	s.write(KindCancellation, b)
	return nil
}
