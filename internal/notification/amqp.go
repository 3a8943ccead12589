package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
)

// AMQPSink publishes customer notifications to a durable RabbitMQ queue. A
// mail worker outside this service consumes the queue.
type AMQPSink struct {
	url    string
	queue  string
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewAMQPSink dials the broker and declares the queue.
func NewAMQPSink(url, queue string, logger *zap.Logger) (*AMQPSink, error) {
	s := &AMQPSink{url: url, queue: queue, logger: logger}
	ch, err := s.channel()
	if err != nil {
		return nil, err
	}
	defer func() { _ = ch.Close() }()
	return s, nil
}

// channel opens a fresh channel, redialling when the connection dropped.
// Channels are not shared between goroutines.
func (s *AMQPSink) channel() (*amqp.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || s.conn.IsClosed() {
		conn, err := amqp.Dial(s.url)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		s.conn = conn
	}

	ch, err := s.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		s.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	return ch, nil
}

func (s *AMQPSink) publish(ctx context.Context, kind Kind, b *booking.Booking) error {
	body, err := NewMessage(kind, b, time.Now()).Encode()
	if err != nil {
		return err
	}

	ch, err := s.channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    b.BookingNumber + ":" + string(kind),
		Type:         string(kind),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", s.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}

	s.logger.Debug("notification queued",
		zap.String("kind", string(kind)),
		zap.String("booking_number", b.BookingNumber),
	)
	return nil
}

func (s *AMQPSink) SendBookingConfirmation(ctx context.Context, b *booking.Booking) error {
	return s.publish(ctx, KindConfirmation, b)
}

func (s *AMQPSink) SendBookingCancellation(ctx context.Context, b *booking.Booking) error {
	return s.publish(ctx, KindCancellation, b)
}

func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
