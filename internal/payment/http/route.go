package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers payment provider callbacks. They authenticate by
// signature, not by bearer token.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/payments")
	{
		group.POST("/webhook", h.Webhook)
	}
}
