package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/rental-booking-backend/internal/auth"
	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
	"github.com/nekogravitycat/rental-booking-backend/internal/booking/bookingtest"
	bookingHttp "github.com/nekogravitycat/rental-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/rental-booking-backend/internal/payment"
)

type fakeCheckout struct{}

func (fakeCheckout) CreateCheckout(_ context.Context, number string) (*payment.CheckoutSession, error) {
	return &payment.CheckoutSession{ID: "cs_" + number, URL: "https://checkout.test/cs_" + number}, nil
}

type testServer struct {
	router    *gin.Engine
	jwt       *auth.JWTManager
	store     *bookingtest.Store
	productID string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog, err := booking.NewSlotCatalog([]string{
		"10:00 - 11:30", "11:30 - 13:00", "13:00 - 14:30", "14:30 - 16:00", "16:00 - 17:30",
	})
	require.NoError(t, err)

	s := &testServer{
		jwt:       auth.NewJWTManager("test-secret", time.Hour),
		store:     bookingtest.NewStore(),
		productID: uuid.NewString(),
	}
	s.store.AddProduct(s.productID, 5)

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := booking.NewService(booking.Config{Location: time.UTC}, booking.Deps{
		Repo:      s.store,
		Tx:        s.store,
		Inventory: s.store,
		Checker:   booking.NewChecker(catalog, s.store, 0),
		Numbers:   booking.NewNumberGenerator("IR", time.UTC, s.store),
		Catalog:   catalog,
		Clock:     func() time.Time { return now },
	})

	s.router = gin.New()
	bookingHttp.RegisterRoutes(
		s.router.Group("/v1"),
		bookingHttp.NewHandler(svc, fakeCheckout{}),
		auth.OptionalAuth(s.jwt),
		auth.AuthRequired(s.jwt), auth.RequireAdmin(),
	)
	return s
}

func (s *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createBody(slot string) gin.H {
	return gin.H{
		"product_id":        s.productID,
		"booking_date":      "2024-03-15",
		"time_slot":         slot,
		"customer_fullname": "Alex Chen",
		"customer_email":    "alex@example.com",
		"participants":      2,
		"total_amount":      1500.5,
	}
}

func (s *testServer) create(t *testing.T, token, slot string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/bookings", token, s.createBody(slot))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp bookingHttp.CreateBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.BookingNumber
}

func TestCreateBooking(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/bookings", "", s.createBody("10:00 - 11:30"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp bookingHttp.CreateBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "IR-20240310-001", resp.BookingNumber)
	assert.Equal(t, "pending", resp.Booking.Status)
	assert.Equal(t, 1500.5, resp.Booking.TotalAmount)
	assert.Equal(t, "2024-03-15", resp.Booking.BookingDate)
	require.NotNil(t, resp.Booking.Product)
	assert.Equal(t, s.productID, resp.Booking.Product.ID)

	w = s.do(t, http.MethodPost, "/v1/bookings", "", s.createBody("10:00 - 11:30"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"conflict"`)
}

func TestCreateBookingValidation(t *testing.T) {
	s := newTestServer(t)

	body := s.createBody("10:00 - 11:30")
	body["participants"] = 0
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/v1/bookings", "", body).Code)

	body = s.createBody("09:00 - 10:00")
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/v1/bookings", "", body).Code)

	body = s.createBody("10:00 - 11:30")
	body["booking_date"] = "2024-01-01"
	w := s.do(t, http.MethodPost, "/v1/bookings", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "past")

	w = s.do(t, http.MethodPost, "/v1/bookings", "garbage", s.createBody("10:00 - 11:30"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingOwnership(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, uuid.NewString(), auth.RoleCustomer)
	number := s.create(t, owner, "10:00 - 11:30")
	guestNumber := s.create(t, "", "11:30 - 13:00")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/bookings/"+number, owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/v1/bookings/"+number, "", nil).Code)

	other := s.token(t, uuid.NewString(), auth.RoleCustomer)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPatch, "/v1/bookings/"+number+"/cancel", other, nil).Code)

	admin := s.token(t, uuid.NewString(), auth.RoleAdmin)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/bookings/"+number, admin, nil).Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/bookings/"+guestNumber, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/v1/bookings/IR-20240310-404", "", nil).Code)
}

func TestCancelBooking(t *testing.T) {
	s := newTestServer(t)
	number := s.create(t, "", "10:00 - 11:30")

	w := s.do(t, http.MethodPatch, "/v1/bookings/"+number+"/cancel", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp bookingHttp.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cancelled", resp.Status)
	assert.NotNil(t, resp.CancelledAt)

	w = s.do(t, http.MethodPatch, "/v1/bookings/"+number+"/cancel", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"business_rule"`)
}

func TestUpdateBooking(t *testing.T) {
	s := newTestServer(t)
	number := s.create(t, "", "10:00 - 11:30")

	w := s.do(t, http.MethodPatch, "/v1/bookings/"+number, "", gin.H{
		"time_slot": "13:00 - 14:30",
		"notes":     "two extra chairs",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp bookingHttp.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "13:00 - 14:30", resp.TimeSlot)
	assert.Equal(t, 1500.5, resp.TotalAmount)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, "two extra chairs", *resp.Notes)
}

func TestUpdateAmountIsStaffOnly(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, uuid.NewString(), auth.RoleCustomer)
	guestNumber := s.create(t, "", "10:00 - 11:30")
	ownedNumber := s.create(t, owner, "11:30 - 13:00")

	reprice := gin.H{"total_amount": 0.01}
	w := s.do(t, http.MethodPatch, "/v1/bookings/"+guestNumber, "", reprice)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodPatch, "/v1/bookings/"+ownedNumber, owner, reprice)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/v1/bookings/"+guestNumber, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp bookingHttp.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1500.5, resp.TotalAmount)

	admin := s.token(t, uuid.NewString(), auth.RoleAdmin)
	w = s.do(t, http.MethodPatch, "/v1/bookings/"+guestNumber, admin, gin.H{"total_amount": 99.99})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 99.99, resp.TotalAmount)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	number := s.create(t, "", "10:00 - 11:30")
	s.create(t, "", "11:30 - 13:00")
	admin := s.token(t, uuid.NewString(), auth.RoleAdmin)
	customer := s.token(t, uuid.NewString(), auth.RoleCustomer)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/bookings", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/v1/bookings", customer, nil).Code)

	w := s.do(t, http.MethodGet, "/v1/bookings?limit=1&order=asc", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []bookingHttp.BookingResponse `json:"items"`
		Count int                           `json:"count"`
		Page  int                           `json:"page"`
		Limit int                           `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 1, page.Limit)
	require.Len(t, page.Items, 1)
	assert.Equal(t, number, page.Items[0].BookingNumber)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/v1/bookings?start_date=2024-03-20&end_date=2024-03-01", admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/v1/bookings/search", admin, nil).Code)

	w = s.do(t, http.MethodGet, "/v1/bookings/search?q="+number, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = s.do(t, http.MethodPatch, "/v1/bookings/"+number+"/confirm", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"confirmed"`)

	w = s.do(t, http.MethodPatch, "/v1/bookings/"+number+"/no-show", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/v1/bookings/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":2,"pending":1,"confirmed":1,"completed":0,"cancelled":0,"no_show":0}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/v1/bookings/date/2024-03-15", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)

	w = s.do(t, http.MethodGet, "/v1/bookings/product/"+s.productID+"/date/2024-03-16", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = s.do(t, http.MethodDelete, "/v1/bookings/"+number, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"booking_number":"`+number+`"}`, w.Body.String())
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/v1/bookings/"+number, admin, nil).Code)
}

func TestAvailableSlotsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.create(t, "", "10:00 - 11:30")

	w := s.do(t, http.MethodGet, "/v1/bookings/available-slots/"+s.productID+"/2024-03-15", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp bookingHttp.AvailableSlotsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.AvailableSlots, 4)
	assert.NotContains(t, resp.AvailableSlots, "10:00 - 11:30")

	w = s.do(t, http.MethodGet, "/v1/bookings/available-slots/-/2024-03-15", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.ProductID)
	assert.Len(t, resp.AvailableSlots, 5)

	w = s.do(t, http.MethodGet, "/v1/bookings/available-slots/"+uuid.NewString()+"/2024-03-15", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/v1/bookings/available-slots/abc/2024-03-15", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductPathMustBeUUID(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, uuid.NewString(), auth.RoleAdmin)

	w := s.do(t, http.MethodGet, "/v1/bookings/product/abc/date/2024-03-15", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodGet, "/v1/bookings/product/-/date/2024-03-15", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutEndpoint(t *testing.T) {
	s := newTestServer(t)
	number := s.create(t, "", "10:00 - 11:30")

	w := s.do(t, http.MethodPost, "/v1/bookings/"+number+"/checkout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"cs_`+number+`","url":"https://checkout.test/cs_`+number+`"}`, w.Body.String())
}
