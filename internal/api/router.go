package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/auth"
	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/rental-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/rental-booking-backend/internal/metrics"
	"github.com/nekogravitycat/rental-booking-backend/internal/payment"
	paymentHttp "github.com/nekogravitycat/rental-booking-backend/internal/payment/http"
	"github.com/nekogravitycat/rental-booking-backend/internal/product"
	productHttp "github.com/nekogravitycat/rental-booking-backend/internal/product/http"
)

// Config holds the services the router exposes.
type Config struct {
	IsProduction   bool
	ProdOrigins    string
	Logger         *zap.Logger
	JWTManager     *auth.JWTManager
	BookingService booking.Service
	ProductService product.Service
	Payments       *payment.Coordinator
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (request id, logging, metrics, CORS, auth) and registers module routes.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger), Recovery(logger), metrics.GinMiddleware())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000", // Storefront dev server
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	// optionalAuth: identifies the caller when a token is present; guests pass through.
	optionalAuth := auth.OptionalAuth(cfg.JWTManager)
	// adminAuth: requires a valid token carrying the admin role.
	adminAuth := []gin.HandlerFunc{auth.AuthRequired(cfg.JWTManager), auth.RequireAdmin()}

	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.Payments)
	productHandler := productHttp.NewHandler(cfg.ProductService)
	paymentHandler := paymentHttp.NewHandler(cfg.Payments)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		bookingHttp.RegisterRoutes(v1, bookingHandler, optionalAuth, adminAuth...)
		productHttp.RegisterRoutes(v1, productHandler, optionalAuth, adminAuth...)
		paymentHttp.RegisterRoutes(v1, paymentHandler)
	}

	return r
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
