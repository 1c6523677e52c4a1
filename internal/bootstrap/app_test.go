package bootstrap_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixel-editor/internal/bootstrap"
	"pixel-editor/internal/editor"
	httpHandler "pixel-editor/internal/handler/http"
	wsHandler "pixel-editor/internal/handler/websocket"
	"pixel-editor/internal/hub"
	"pixel-editor/internal/repository/mocks"
	"pixel-editor/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &bootstrap.Config{
		JWTSecret:       "secret",
		AllowedOrigin:   "http://example.test",
		RateLimitMax:    10,
		RateLimitWindow: time.Second,
	}
	authService, err := service.NewAuthService(new(mocks.UserRepository), cfg.JWTSecret, 1)
	require.NoError(t, err)
	imageService := service.NewImageService(new(mocks.ImageRepository), nil, time.Minute, editor.DefaultGrid())
	h := hub.NewHub(hub.NewDispatcher(imageService, nopEnqueuer{}), editor.Options{}, time.Minute)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return bootstrap.NewRouter(cfg, log, nil,
		httpHandler.NewAuthHandler(authService),
		httpHandler.NewImageHandler(imageService),
		wsHandler.NewWebSocketHandler(h, cfg.AllowedOrigin),
	)
}

func TestRouter_Ping(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.Equal(t, "http://example.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/api/images", "/api/images/a", "/api/images/a/preview", "/ws/editor"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRouter_Preflight(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/images", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}
