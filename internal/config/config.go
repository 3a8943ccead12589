package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// DefaultSlotCatalog is the daily slot catalog used when SLOT_CATALOG is unset.
var DefaultSlotCatalog = []string{
	"10:00 - 11:30",
	"11:30 - 13:00",
	"13:00 - 14:30",
	"14:30 - 16:00",
	"16:00 - 17:30",
}

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	StoreTimeout      time.Duration
	JaegerEndpoint    string

	Booking BookingConfig
	Payment PaymentConfig
	Redis   RedisConfig
	AMQP    AMQPConfig
	Kafka   KafkaConfig
}

type BookingConfig struct {
	NumberPrefix        string
	Location            *time.Location
	SlotCatalog         []string
	VenueSlotCapacity   int
	NoShowGrace         time.Duration
	NoShowSweepInterval time.Duration
}

type PaymentConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	Timeout             time.Duration
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	SlotCacheTTL time.Duration
}

type AMQPConfig struct {
	URL   string
	Queue string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	var err error

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for verifying tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = getEnvAsDuration("STORE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	cfg.JaegerEndpoint = getEnv("JAEGER_ENDPOINT", "")

	if err := loadBooking(&cfg.Booking); err != nil {
		return nil, err
	}
	if err := loadPayment(&cfg.Payment); err != nil {
		return nil, err
	}
	if err := loadRedis(&cfg.Redis); err != nil {
		return nil, err
	}

	cfg.AMQP = AMQPConfig{
		URL:   getEnv("RABBITMQ_URL", ""),
		Queue: getEnv("RABBITMQ_QUEUE", "booking.confirmed"),
	}
	cfg.Kafka = KafkaConfig{
		Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
		Topic:   getEnv("KAFKA_TOPIC_BOOKINGS", "booking.lifecycle"),
	}

	return cfg, nil
}

func loadBooking(b *BookingConfig) error {
	var err error

	b.NumberPrefix = strings.ToUpper(getEnv("BOOKING_NUMBER_PREFIX", "IR"))
	if b.NumberPrefix == "" {
		return fmt.Errorf("BOOKING_NUMBER_PREFIX must not be empty")
	}

	tz := getEnv("BUSINESS_TIMEZONE", "UTC")
	if b.Location, err = time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid BUSINESS_TIMEZONE: %w", err)
	}

	b.SlotCatalog = DefaultSlotCatalog
	if raw := getEnv("SLOT_CATALOG", ""); raw != "" {
		b.SlotCatalog = splitList(raw)
	}

	if b.VenueSlotCapacity, err = getEnvAsInt("VENUE_SLOT_CAPACITY", 0); err != nil {
		return err
	}
	if b.VenueSlotCapacity < 0 {
		return fmt.Errorf("VENUE_SLOT_CAPACITY must not be negative")
	}
	if b.NoShowGrace, err = getEnvAsDuration("NO_SHOW_GRACE", 30*time.Minute); err != nil {
		return err
	}
	if b.NoShowSweepInterval, err = getEnvAsDuration("NO_SHOW_SWEEP_INTERVAL", 0); err != nil {
		return err
	}
	return nil
}

func loadPayment(p *PaymentConfig) error {
	var err error

	p.StripeSecretKey = getEnv("STRIPE_SECRET_KEY", "")
	p.StripeWebhookSecret = getEnv("STRIPE_WEBHOOK_SECRET", "")
	p.Currency = strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd"))
	p.CheckoutSuccessURL = getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/booking/success")
	p.CheckoutCancelURL = getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/booking/cancel")
	if p.Timeout, err = getEnvAsDuration("PAYMENT_TIMEOUT", 10*time.Second); err != nil {
		return err
	}
	return nil
}

func loadRedis(r *RedisConfig) error {
	var err error

	r.Addr = getEnv("REDIS_ADDR", "")
	r.Password = getEnv("REDIS_PASSWORD", "")
	if r.DB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return err
	}
	if r.SlotCacheTTL, err = getEnvAsDuration("SLOT_CACHE_TTL", 30*time.Second); err != nil {
		return err
	}
	return nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration parses values such as "15m" or "1h".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}

	return val, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
