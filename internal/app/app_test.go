package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/app"
	"github.com/nekogravitycat/rental-booking-backend/internal/auth"
	bookingHttp "github.com/nekogravitycat/rental-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/rental-booking-backend/internal/config"
	"github.com/nekogravitycat/rental-booking-backend/internal/db"
	productHttp "github.com/nekogravitycat/rental-booking-backend/internal/product/http"
)

var (
	testRouter *gin.Engine
	testPool   *pgxpool.Pool
	jwtManager *auth.JWTManager
)

func TestMain(m *testing.M) {
	// Attempt to load .env from the repository root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("No .env file found or failed to load: %v", err)
	}

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		log.Printf("TEST_DB_DSN not set, skipping end-to-end tests")
		os.Exit(0)
	}

	ctx := context.Background()
	var err error
	testPool, err = db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	if err := db.EnsureSchema(ctx, testPool); err != nil {
		log.Fatalf("Unable to apply schema: %v\n", err)
	}

	cfg := &config.Config{
		JWTSecret:         "e2e-secret",
		JWTAccessTokenTTL: 30 * time.Minute,
		StoreTimeout:      5 * time.Second,
		Booking: config.BookingConfig{
			NumberPrefix: "IT",
			Location:     time.UTC,
			SlotCatalog:  config.DefaultSlotCatalog,
			NoShowGrace:  30 * time.Minute,
		},
		Payment: config.PaymentConfig{Currency: "usd", Timeout: 5 * time.Second},
	}

	gin.SetMode(gin.TestMode)
	container, err := app.NewContainer(ctx, cfg, testPool, zap.NewNop())
	if err != nil {
		log.Fatalf("Unable to build container: %v\n", err)
	}
	testRouter = container.Router
	jwtManager = container.JWTManager

	exitCode := m.Run()

	_ = container.Close()
	testPool.Close()
	os.Exit(exitCode)
}

func clearTables() {
	ctx := context.Background()
	queries := []string{
		"TRUNCATE TABLE public.payment_events",
		"TRUNCATE TABLE public.payments CASCADE",
		"TRUNCATE TABLE public.bookings CASCADE",
		"TRUNCATE TABLE public.booking_counters",
		"TRUNCATE TABLE public.products CASCADE",
	}
	for _, q := range queries {
		if _, err := testPool.Exec(ctx, q); err != nil {
			log.Printf("Failed to clean table: %v", err)
		}
	}
}

func executeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func generateToken(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := jwtManager.GenerateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return token
}

func TestBookingLifecycle(t *testing.T) {
	clearTables()

	adminToken := generateToken(t, "7f1d7a36-9a4b-4f55-9b1e-2f7c5f0d9a01", auth.RoleAdmin)
	date := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")

	var productID string
	var number string

	t.Run("Create Product", func(t *testing.T) {
		w := executeRequest("POST", "/v1/products", productHttp.CreateRequest{
			Name:          "Kayak",
			Price:         45,
			StockQuantity: 1,
		}, adminToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var p productHttp.ProductResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		productID = p.ID
	})

	book := func(slot string) *httptest.ResponseRecorder {
		return executeRequest("POST", "/v1/bookings", bookingHttp.CreateBookingRequest{
			ProductID:        productID,
			BookingDate:      date,
			TimeSlot:         slot,
			CustomerFullname: "Alex Chen",
			CustomerEmail:    "alex@example.com",
			Participants:     2,
		}, "")
	}

	t.Run("Guest Books Free Slot", func(t *testing.T) {
		w := book("10:00 - 11:30")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var res bookingHttp.CreateBookingResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		number = res.BookingNumber
		assert.Regexp(t, `^IT-\d{8}-\d{3,}$`, number)
		assert.Equal(t, "pending", res.Booking.Status)
	})

	t.Run("Same Slot Conflicts", func(t *testing.T) {
		w := book("10:00 - 11:30")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Stock Exhausted", func(t *testing.T) {
		w := book("13:00 - 14:30")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Available Slots Hide Booked Slot", func(t *testing.T) {
		w := executeRequest("GET", fmt.Sprintf("/v1/bookings/available-slots/%s/%s", productID, date), nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var res bookingHttp.AvailableSlotsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Len(t, res.AvailableSlots, 4)
		assert.NotContains(t, res.AvailableSlots, "10:00 - 11:30")
	})

	t.Run("Guest Reads And Cancels", func(t *testing.T) {
		w := executeRequest("GET", "/v1/bookings/"+number, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = executeRequest("PATCH", "/v1/bookings/"+number+"/cancel", nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = executeRequest("PATCH", "/v1/bookings/"+number+"/cancel", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Stock Restored", func(t *testing.T) {
		w := executeRequest("GET", "/v1/products/"+productID, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var p productHttp.ProductResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Equal(t, 1, p.StockQuantity)

		w = book("10:00 - 11:30")
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Admin Stats", func(t *testing.T) {
		w := executeRequest("GET", "/v1/bookings/stats", nil, adminToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":2`)

		w = executeRequest("GET", "/v1/bookings/stats", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
