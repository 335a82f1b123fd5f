package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chamado.backend/internal/infrastructure/metrics"
	"chamado.backend/pkg/jwt"
	"chamado.backend/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT() *jwt.JWTService {
	return jwt.NewJWTService("middleware-secret", time.Minute, time.Hour)
}

func tokens(t *testing.T, svc *jwt.JWTService, role string) *jwt.TokenPair {
	t.Helper()
	pair, err := svc.GenerateTokenPair("sess-1", "101", "lucas@missao.com", role)
	require.NoError(t, err)
	return pair
}

func probeRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		sid, _ := GetSessionID(c)
		uid, _ := GetUserID(c)
		role, _ := GetUserRole(c)
		ctxSID, _ := c.Request.Context().Value(logger.SessionIDKey).(string)
		c.JSON(http.StatusOK, gin.H{"sid": sid, "uid": uid, "role": role, "ctxSid": ctxSID})
	})
	r.GET("/probe", handlers...)
	return r
}

func doGet(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if auth != "" {
		req.Header.Set(AuthorizationHeader, auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	svc := newJWT()
	pair := tokens(t, svc, "USER")
	r := probeRouter(AuthMiddleware(svc))

	w := doGet(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header is required")

	w = doGet(r, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid authorization format")

	w = doGet(r, BearerPrefix+"not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")

	w = doGet(r, BearerPrefix+pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Access token required")

	w = doGet(r, BearerPrefix+pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"sid":"sess-1"`)
	assert.Contains(t, body, `"uid":"101"`)
	assert.Contains(t, body, `"role":"USER"`)
	assert.Contains(t, body, `"ctxSid":"sess-1"`)
}

func TestAuthMiddleware_Expired(t *testing.T) {
	svc := jwt.NewJWTService("middleware-secret", -time.Minute, time.Hour)
	pair := tokens(t, svc, "USER")

	w := doGet(probeRouter(AuthMiddleware(svc)), BearerPrefix+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token has expired")
}

func TestOptionalAuthMiddleware(t *testing.T) {
	svc := newJWT()
	r := probeRouter(OptionalAuthMiddleware(svc))

	w := doGet(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sid":""`)

	w = doGet(r, BearerPrefix+"garbage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sid":""`)

	w = doGet(r, BearerPrefix+tokens(t, svc, "USER").AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sid":"sess-1"`)
}

func TestRequireAdmin(t *testing.T) {
	svc := newJWT()
	r := probeRouter(AuthMiddleware(svc), RequireAdmin())

	w := doGet(r, BearerPrefix+tokens(t, svc, "USER").AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doGet(r, BearerPrefix+tokens(t, svc, "ADMIN").AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doGet(probeRouter(RequireAdmin()), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/probe", func(c *gin.Context) {
		fromCtx, _ := c.Request.Context().Value(logger.RequestIDKey).(string)
		c.String(http.StatusOK, c.GetString(RequestIDKey)+"|"+fromCtx)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42|req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	parts := strings.Split(w.Body.String(), "|")
	require.Len(t, parts, 2)
	assert.NotEmpty(t, parts[0])
	assert.Equal(t, parts[0], parts[1])
}

func TestLoggerMiddleware_RecordsLatency(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(LoggerMiddleware(m))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health?x=1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestLoggerMiddleware_NilMetrics(t *testing.T) {
	r := gin.New()
	r.Use(LoggerMiddleware(nil))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() { r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil)) })
	assert.Equal(t, http.StatusOK, w.Code)
}
