package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers product routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, optionalAuth gin.HandlerFunc, adminAuth ...gin.HandlerFunc) {
	group := g.Group("/products")

	// === Public Routes ===
	public := group.Group("", optionalAuth)
	{
		public.GET("", h.List)    // List products
		public.GET("/:id", h.Get) // Get product details
	}

	// === Admin Routes ===
	admin := group.Group("", adminAuth...)
	{
		admin.POST("", h.Create)
		admin.PATCH("/:id", h.Update)
		admin.POST("/:id/restock", h.Restock)
	}
}
