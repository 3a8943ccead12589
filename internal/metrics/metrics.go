package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings created",
	}, []string{"type"})

	BookingsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_failed_total",
		Help: "Total number of rejected booking creations",
	}, []string{"reason"})

	BookingTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Total number of booking status transitions",
	}, []string{"from", "to"})

	BookingCreateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booking_create_latency_seconds",
		Help:    "Latency of the booking creation transaction",
		Buckets: prometheus.DefBuckets,
	})

	InventoryReleasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_releases_total",
		Help: "Total number of inventory units released back to stock",
	})

	InventoryReservationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_reservations_failed_total",
		Help: "Total number of failed inventory reservations",
	}, []string{"reason"})

	PaymentGatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_latency_seconds",
		Help:    "Latency of payment provider calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	PaymentGatewayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_errors_total",
		Help: "Total number of failed payment provider calls",
	}, []string{"operation"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Total number of payment webhook deliveries",
	}, []string{"type", "outcome"})

	NotificationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_notifications_failed_total",
		Help: "Total number of booking notifications that could not be delivered",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

// ObserveSince records the elapsed time since start on h.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// GinMiddleware records request count and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
