package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/payment"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/response"
)

// maxWebhookBody caps the raw payload read for signature verification.
const maxWebhookBody = 1 << 20

type Handler struct {
	coordinator *payment.Coordinator
}

func NewHandler(coordinator *payment.Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

// Webhook receives provider events. The raw body is needed as-is for
// signature verification, so it is not bound.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		response.Error(c, payment.ErrSignature)
		return
	}

	if err := h.coordinator.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		if apperror.IsKind(err, apperror.KindSignature) {
			response.Error(c, err)
			return
		}
		// Anything else is answered with 500 so the provider redelivers.
		zap.L().Error("payment webhook failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
