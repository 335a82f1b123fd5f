package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chamado.backend/pkg/redis"
)

func startMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	cli := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	redis.SetClient(cli)
	t.Cleanup(func() {
		_ = cli.Close()
		srv.Close()
	})
	return srv
}

func idempotentRouter(status int, hits *int) *gin.Engine {
	r := gin.New()
	r.POST("/submit", func(c *gin.Context) {
		c.Set(UserIDKey, "101")
		c.Next()
	}, IdempotencyMiddleware(), func(c *gin.Context) {
		*hits++
		c.JSON(status, gin.H{"n": *hits})
	})
	return r
}

func postWithKey(r http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	srv := startMiniRedis(t)
	hits := 0
	r := idempotentRouter(http.StatusOK, &hits)

	first := postWithKey(r, "k1")
	require.Equal(t, http.StatusOK, first.Code)
	second := postWithKey(r, "k1")
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, 1, hits)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Hit"))
	assert.True(t, srv.Exists("idempotency:101:k1"))

	postWithKey(r, "")
	postWithKey(r, "")
	assert.Equal(t, 3, hits)
}

func TestIdempotency_FailureAllowsRetry(t *testing.T) {
	srv := startMiniRedis(t)
	hits := 0
	r := idempotentRouter(http.StatusUnprocessableEntity, &hits)

	postWithKey(r, "k2")
	assert.False(t, srv.Exists("idempotency:101:k2"))
	postWithKey(r, "k2")
	assert.Equal(t, 2, hits)
}

func TestIdempotency_InProgress(t *testing.T) {
	srv := startMiniRedis(t)
	require.NoError(t, srv.Set("idempotency:101:k3", processingMarker))
	hits := 0

	w := postWithKey(idempotentRouter(http.StatusOK, &hits), "k3")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, hits)
}

func TestIdempotency_StoreDownPassesThrough(t *testing.T) {
	orig := redisGet
	t.Cleanup(func() { redisGet = orig })
	redisGet = func(context.Context, string) (string, error) { return "", errors.New("connection refused") }

	hits := 0
	w := postWithKey(idempotentRouter(http.StatusOK, &hits), "k4")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, hits)
}

func TestIdempotency_LockLost(t *testing.T) {
	startMiniRedis(t)
	orig := redisSetNX
	t.Cleanup(func() { redisSetNX = orig })
	redisSetNX = func(context.Context, string, interface{}, time.Duration) (bool, error) { return false, nil }

	hits := 0
	w := postWithKey(idempotentRouter(http.StatusOK, &hits), "k5")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, hits)
}
