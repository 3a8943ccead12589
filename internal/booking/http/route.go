package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers booking routes. optionalAuth lets guests through,
// adminAuth must reject everyone but staff.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, optionalAuth gin.HandlerFunc, adminAuth ...gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Public Routes ===
	group.GET("/available-slots/:productId/:date", h.AvailableSlots)

	// === Admin Routes ===
	admin := group.Group("", adminAuth...)
	{
		admin.GET("", h.List)
		admin.GET("/search", h.Search)
		admin.GET("/stats", h.Stats)
		admin.GET("/date/:date", h.ByDate)
		admin.GET("/product/:productId/date/:date", h.ByProductAndDate)
		admin.DELETE("/:number", h.Delete)
		admin.PATCH("/:number/confirm", h.Confirm)
		admin.PATCH("/:number/complete", h.Complete)
		admin.PATCH("/:number/no-show", h.MarkNoShow)
	}

	// === Customer Routes (guest or authenticated) ===
	customer := group.Group("", optionalAuth)
	{
		customer.POST("", h.Create)
		customer.GET("/:number", h.Get)
		customer.PATCH("/:number", h.Update)
		customer.PATCH("/:number/cancel", h.Cancel)
		customer.POST("/:number/checkout", h.Checkout)
	}
}
