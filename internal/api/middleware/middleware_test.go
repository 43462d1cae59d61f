package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/sandpad/internal/shared/id"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	assert.Equal(t, http.StatusOK, get(r, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/ping", nil).Code)

	w := get(r, "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	// another client has its own bucket
	assert.Equal(t, http.StatusOK, get(r, "/ping", map[string]string{"X-Forwarded-For": "10.0.0.9"}).Code)
}

func TestRequestIDAssigned(t *testing.T) {
	r := newRouter(RequestID())

	w := get(r, "/ping", nil)

	requestID := w.Header().Get(RequestIDHeader)
	assert.True(t, id.IsValidPrefixed(requestID, id.RequestPrefix), requestID)
}

func TestRequestIDPropagated(t *testing.T) {
	r := newRouter(RequestID())
	supplied := id.NewRequestID().String()

	w := get(r, "/ping", map[string]string{RequestIDHeader: supplied})
	assert.Equal(t, supplied, w.Header().Get(RequestIDHeader))

	w = get(r, "/ping", map[string]string{RequestIDHeader: "not-an-id"})
	assert.NotEqual(t, "not-an-id", w.Header().Get(RequestIDHeader))
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newRouter(RequestID(), Logger(zap.New(core)))

	get(r, "/ping", nil)
	get(r, "/boom", nil)
	get(r, "/missing", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "/ping", entries[0].ContextMap()["route"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "unmatched", entries[2].ContextMap()["route"])
}

func TestCORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		assert.False(t, cfg.AllowCredentials)

		r := newRouter(CORS(cfg))
		w := get(r, "/ping", map[string]string{"Origin": "http://anywhere.test"})
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("explicit origins", func(t *testing.T) {
		cfg := DefaultCORSConfig("http://localhost:3000")
		assert.True(t, cfg.AllowCredentials)

		r := newRouter(CORS(cfg))
		w := get(r, "/ping", map[string]string{"Origin": "http://localhost:3000"})
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		exposed := strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))
		assert.Contains(t, exposed, strings.ToLower(RequestIDHeader))

		w = get(r, "/ping", map[string]string{"Origin": "http://evil.test"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
