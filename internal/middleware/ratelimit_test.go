package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixel-editor/internal/middleware"
)

const limitKey = "px:ratelimit:192.0.2.1"

func newLimitedRouter(t *testing.T, max int, window time.Duration) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", middleware.RateLimit(client, "px:", max, window), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, mr
}

func hit(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	r, _ := newLimitedRouter(t, 2, time.Second)

	assert.Equal(t, http.StatusOK, hit(r).Code)
	w := hit(r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r).Code)
}

func TestRateLimit_WindowIsFixed(t *testing.T) {
	r, mr := newLimitedRouter(t, 2, time.Second)

	require.Equal(t, http.StatusOK, hit(r).Code)
	mr.FastForward(600 * time.Millisecond)
	require.Equal(t, http.StatusOK, hit(r).Code)
	// 第二个请求不应延长窗口
	assert.Equal(t, 400*time.Millisecond, mr.TTL(limitKey))

	mr.FastForward(600 * time.Millisecond)
	assert.False(t, mr.Exists(limitKey), "窗口从第一个请求开始计时")
	assert.Equal(t, http.StatusOK, hit(r).Code)
}

func TestRateLimit_RestoresMissingExpiry(t *testing.T) {
	r, mr := newLimitedRouter(t, 5, time.Second)
	require.NoError(t, mr.Set(limitKey, "3"))

	assert.Equal(t, http.StatusOK, hit(r).Code)
	assert.Equal(t, time.Second, mr.TTL(limitKey))
}

func TestRateLimit_RedisDown(t *testing.T) {
	r, mr := newLimitedRouter(t, 2, time.Second)
	mr.Close()

	assert.Equal(t, http.StatusInternalServerError, hit(r).Code)
}
