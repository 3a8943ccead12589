package http_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/rental-booking-backend/internal/booking/bookingtest"
	"github.com/nekogravitycat/rental-booking-backend/internal/payment"
	paymentHttp "github.com/nekogravitycat/rental-booking-backend/internal/payment/http"
	"github.com/nekogravitycat/rental-booking-backend/internal/payment/paymenttest"
)

func newRouter(repo *paymenttest.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := bookingtest.NewStore()
	store.Track(repo)
	coordinator := payment.NewCoordinator(payment.Config{Currency: "usd"}, &paymenttest.Gateway{}, repo, store, nil)

	r := gin.New()
	paymentHttp.RegisterRoutes(r.Group("/v1"), paymentHttp.NewHandler(coordinator))
	return r
}

func TestWebhookEndpoint(t *testing.T) {
	body := paymenttest.WebhookPayload{ID: "evt_1", Type: "customer.created"}.Bytes()

	tests := []struct {
		name      string
		signature string
		body      []byte
		wantCode  int
	}{
		{"missing signature", "", body, http.StatusBadRequest},
		{"bad signature", "t=1,v1=forged", body, http.StatusBadRequest},
		{"undecodable payload", paymenttest.ValidSignature, []byte("not json"), http.StatusInternalServerError},
		{"accepted", paymenttest.ValidSignature, body, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := paymenttest.NewRepository()
			r := newRouter(repo)

			req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set("Stripe-Signature", tt.signature)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.JSONEq(t, `{"received":true}`, w.Body.String())
				assert.Equal(t, 1, repo.EventCount())
			}
		})
	}
}
