package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/bookings")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsProduction)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "IR", cfg.Booking.NumberPrefix)
	assert.Equal(t, time.UTC, cfg.Booking.Location)
	assert.Equal(t, DefaultSlotCatalog, cfg.Booking.SlotCatalog)
	assert.Zero(t, cfg.Booking.NoShowSweepInterval)
	assert.Equal(t, "usd", cfg.Payment.Currency)
	assert.Equal(t, "booking.confirmed", cfg.AMQP.Queue)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("BOOKING_NUMBER_PREFIX", "bk")
	t.Setenv("SLOT_CATALOG", "09:00 - 10:00, 10:00 - 11:00")
	t.Setenv("VENUE_SLOT_CAPACITY", "12")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PAYMENT_CURRENCY", "EUR")
	t.Setenv("NO_SHOW_SWEEP_INTERVAL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, "BK", cfg.Booking.NumberPrefix)
	assert.Equal(t, []string{"09:00 - 10:00", "10:00 - 11:00"}, cfg.Booking.SlotCatalog)
	assert.Equal(t, 12, cfg.Booking.VenueSlotCapacity)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "eur", cfg.Payment.Currency)
	assert.Equal(t, 5*time.Minute, cfg.Booking.NoShowSweepInterval)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dsn", map[string]string{"DB_DSN": "", "JWT_SECRET": "s"}},
		{"missing secret", map[string]string{"DB_DSN": "x", "JWT_SECRET": ""}},
		{"bad timeout", map[string]string{"DB_DSN": "x", "JWT_SECRET": "s", "STORE_TIMEOUT": "soon"}},
		{"bad timezone", map[string]string{"DB_DSN": "x", "JWT_SECRET": "s", "BUSINESS_TIMEZONE": "Mars/Olympus"}},
		{"negative capacity", map[string]string{"DB_DSN": "x", "JWT_SECRET": "s", "VENUE_SLOT_CAPACITY": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
