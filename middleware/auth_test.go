package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend_fitadmin/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthMiddleware() *AuthMiddleware {
	return NewAuthMiddleware(&config.Config{
		JWT: config.JWTConfig{
			Secret:    "test-secret-key",
			Issuer:    "fitadmin",
			ExpiresIn: time.Hour,
		},
	})
}

func protectedRouter(am *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"user_id": GetCurrentUserID(c),
			"role":    GetCurrentRole(c),
		})
	})
	r.GET("/admin", am.RequireAuth(), am.RequireRole("admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})
	return r
}

func TestAuthMiddleware_TokenRoundTrip(t *testing.T) {
	am := testAuthMiddleware()

	token, err := am.GenerateToken(42, "testuser", "staff")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := am.validateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, "fitadmin", claims.Issuer)
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	am := testAuthMiddleware()
	r := protectedRouter(am)

	// Без заголовка
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// С поддельным токеном
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// С действительным токеном
	token, err := am.GenerateToken(42, "testuser", "staff")
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"staff"`)
}

func TestAuthMiddleware_RejectsForeignSecret(t *testing.T) {
	am := testAuthMiddleware()
	foreign := NewAuthMiddleware(&config.Config{
		JWT: config.JWTConfig{Secret: "another-secret", Issuer: "fitadmin", ExpiresIn: time.Hour},
	})

	token, err := foreign.GenerateToken(1, "intruder", "admin")
	require.NoError(t, err)

	_, err = am.validateToken(token)
	assert.Error(t, err, "Token signed with a different secret must be rejected")
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	am := testAuthMiddleware()
	r := protectedRouter(am)

	staffToken, err := am.GenerateToken(1, "staff-user", "staff")
	require.NoError(t, err)
	adminToken, err := am.GenerateToken(2, "admin-user", "admin")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", extractToken("Bearer abc"))
	assert.Equal(t, "abc", extractToken("Token abc"))
	assert.Equal(t, "abc", extractToken("abc"))
}
