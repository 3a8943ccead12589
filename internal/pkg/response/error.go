package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, the error is logged and a 500 is returned.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Kind == apperror.KindDependency {
			zap.L().Warn("dependency failure",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message, Kind: string(appErr.Kind)})
		return
	}

	zap.L().Error("unhandled error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// BindError responds to a request that failed binding or validation.
func BindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request",
		"kind":    string(apperror.KindValidation),
		"details": err.Error(),
	})
}
