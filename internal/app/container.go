package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/api"
	"github.com/nekogravitycat/rental-booking-backend/internal/auth"
	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
	"github.com/nekogravitycat/rental-booking-backend/internal/cache"
	"github.com/nekogravitycat/rental-booking-backend/internal/config"
	"github.com/nekogravitycat/rental-booking-backend/internal/customer"
	"github.com/nekogravitycat/rental-booking-backend/internal/db"
	"github.com/nekogravitycat/rental-booking-backend/internal/events"
	"github.com/nekogravitycat/rental-booking-backend/internal/inventory"
	"github.com/nekogravitycat/rental-booking-backend/internal/notification"
	"github.com/nekogravitycat/rental-booking-backend/internal/payment"
	"github.com/nekogravitycat/rental-booking-backend/internal/product"
	"github.com/nekogravitycat/rental-booking-backend/internal/worker"
)

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service
	Sweeper        *worker.NoShowSweeper

	closers []func() error
}

// NewContainer initializes all modules and returns the container.
// Optional integrations (Redis, RabbitMQ, Kafka) are enabled by configuration.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) (*Container, error) {
	c := &Container{}

	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)
	transactor := db.NewTransactor(pool)

	catalog, err := booking.NewSlotCatalog(cfg.Booking.SlotCatalog)
	if err != nil {
		return nil, fmt.Errorf("slot catalog: %w", err)
	}

	// Product Module
	productRepo := product.NewPgxRepository(pool)
	productService := product.NewService(productRepo)

	// Payment Module
	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:     cfg.Payment.StripeSecretKey,
		WebhookSecret: cfg.Payment.StripeWebhookSecret,
		Timeout:       cfg.Payment.Timeout,
	})
	if cfg.Payment.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is empty; payment calls will fail")
	}
	coordinator := payment.NewCoordinator(payment.Config{
		Currency:   cfg.Payment.Currency,
		Timeout:    cfg.Payment.Timeout,
		SuccessURL: cfg.Payment.CheckoutSuccessURL,
		CancelURL:  cfg.Payment.CheckoutCancelURL,
	}, gateway, payment.NewPgxRepository(pool), transactor, logger.Named("payment"))

	// Booking Module
	bookingRepo := booking.NewPgxRepository(pool)
	deps := booking.Deps{
		Repo:      bookingRepo,
		Tx:        transactor,
		Inventory: inventory.NewLedger(pool),
		Checker:   booking.NewChecker(catalog, bookingRepo, cfg.Booking.VenueSlotCapacity),
		Numbers:   booking.NewNumberGenerator(cfg.Booking.NumberPrefix, cfg.Booking.Location, bookingRepo),
		Catalog:   catalog,
		Customers: customer.NewPgxDirectory(pool),
		Payments:  coordinator,
		Logger:    logger.Named("booking"),
	}
	c.wireIntegrations(ctx, cfg, logger, &deps)

	bookingService := booking.NewService(booking.Config{
		Location:     cfg.Booking.Location,
		StoreTimeout: cfg.StoreTimeout,
	}, deps)
	coordinator.BindBookings(bookingService)

	// Router
	c.Router = api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		Logger:         logger,
		JWTManager:     jwtManager,
		BookingService: bookingService,
		ProductService: productService,
		Payments:       coordinator,
	})
	c.JWTManager = jwtManager
	c.BookingService = bookingService
	c.Sweeper = worker.NewNoShowSweeper(bookingService, cfg.Booking.NoShowGrace, cfg.Booking.NoShowSweepInterval, logger.Named("sweeper"))
	return c, nil
}

// wireIntegrations connects the optional collaborators. An unreachable
// broker or cache is logged and replaced by its local fallback.
func (c *Container) wireIntegrations(ctx context.Context, cfg *config.Config, logger *zap.Logger, deps *booking.Deps) {
	deps.Notifier = notification.NewLogSink(logger.Named("notification"))
	if cfg.AMQP.URL != "" {
		sink, err := notification.NewAMQPSink(cfg.AMQP.URL, cfg.AMQP.Queue, logger.Named("notification"))
		if err != nil {
			logger.Warn("rabbitmq unavailable, logging notifications instead", zap.Error(err))
		} else {
			deps.Notifier = sink
			c.closers = append(c.closers, sink.Close)
		}
	}

	deps.Events = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		deps.Events = publisher
		c.closers = append(c.closers, publisher.Close)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, slot cache disabled", zap.Error(err))
		} else {
			deps.Cache = cache.NewSlotCache(rdb, cfg.Redis.SlotCacheTTL, logger.Named("cache"))
			c.closers = append(c.closers, rdb.Close)
		}
	}
}

// Close releases broker and cache connections.
func (c *Container) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
