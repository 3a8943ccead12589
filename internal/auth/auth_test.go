package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)

	token, err := m.GenerateAccessToken("user-1", "a@example.com", RoleAdmin)
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)

	other := NewJWTManager("other", time.Minute)
	_, err = other.ParseAndValidate(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewJWTManager("secret", -time.Minute)
	token, err := m.GenerateAccessToken("user-1", "a@example.com", "")
	require.NoError(t, err)

	_, err = m.ParseAndValidate(token)
	assert.Error(t, err)
}

func newTestRouter(m *JWTManager) *gin.Engine {
	r := gin.New()
	echo := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUserID(c), "role": GetUserRole(c)})
	}
	r.GET("/optional", OptionalAuth(m), echo)
	r.GET("/required", AuthRequired(m), echo)
	r.GET("/admin", AuthRequired(m), RequireAdmin(), echo)
	return r
}

func do(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	r := newTestRouter(m)

	customer, _ := m.GenerateAccessToken("u1", "c@example.com", RoleCustomer)
	admin, _ := m.GenerateAccessToken("u2", "a@example.com", RoleAdmin)

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"guest on optional", "/optional", "", http.StatusOK},
		{"garbage on optional", "/optional", "garbage", http.StatusUnauthorized},
		{"guest on required", "/required", "", http.StatusUnauthorized},
		{"customer on required", "/required", customer, http.StatusOK},
		{"customer on admin", "/admin", customer, http.StatusForbidden},
		{"admin on admin", "/admin", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.path, tt.token)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
