package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// =====================
// レスポンス確認用（any禁止）
// =====================

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// =====================
// helper
// =====================

func mustMakeJWT(t *testing.T, secret string, sub int64, role string, signingMethod jwt.SigningMethod) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  1,
		"exp":  9999999999,
	}

	token := jwt.NewWithClaims(signingMethod, claims)

	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func newTestEcho(cfg config.Config, guards ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	mws := append([]echo.MiddlewareFunc{middleware.AuthJWT(cfg)}, guards...)
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, mwOKResponse{
			UserID: c.Get(middleware.CtxUserIDKey).(int64),
			Role:   c.Get(middleware.CtxUserRoleKey).(string),
		})
	}, mws...)
	return e
}

func runRequest(t *testing.T, e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMWError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

func decodeMWOK(t *testing.T, rec *httptest.ResponseRecorder) mwOKResponse {
	t.Helper()
	var r mwOKResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_NoHeader(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newTestEcho(cfg)

	rec := runRequest(t, e, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeMWError(t, rec).Error)
}

func TestAuthJWT_NotBearer(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newTestEcho(cfg)

	rec := runRequest(t, e, "Basic abcdef")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newTestEcho(cfg)

	token := mustMakeJWT(t, "other-secret", 7, "customer", jwt.SigningMethodHS256)
	rec := runRequest(t, e, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSigningMethod(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newTestEcho(cfg)

	//HS256以外は拒否する
	token := mustMakeJWT(t, "test-secret", 7, "customer", jwt.SigningMethodHS512)
	rec := runRequest(t, e, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ValidToken_SetsContext(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newTestEcho(cfg)

	token := mustMakeJWT(t, "test-secret", 7, "customer", jwt.SigningMethodHS256)
	rec := runRequest(t, e, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeMWOK(t, rec)
	assert.Equal(t, int64(7), body.UserID)
	assert.Equal(t, "customer", body.Role)
}

// =====================
// RoleGuard
// =====================

func TestRoleGuard_AllowsListedRole(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newTestEcho(cfg, middleware.RoleGuard(model.RoleSupplier, model.RoleAdmin))

	token := mustMakeJWT(t, "test-secret", 10, "supplier", jwt.SigningMethodHS256)
	rec := runRequest(t, e, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoleGuard_ForbidsOtherRole(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}
	e := newTestEcho(cfg, middleware.RoleGuard(model.RoleSupplier, model.RoleAdmin))

	token := mustMakeJWT(t, "test-secret", 7, "customer", jwt.SigningMethodHS256)
	rec := runRequest(t, e, "Bearer "+token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeMWError(t, rec).Error)
}
