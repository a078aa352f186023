package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Error   *struct {
		Code      string `json:"code"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func okHandler(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDContextKey)) })

	t.Run("propagates header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Body.String())
		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("generates when absent or oversized", func(t *testing.T) {
		for _, header := range []string{"", strings.Repeat("x", 200)} {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set(RequestIDHeader, header)
			}
			r.ServeHTTP(w, req)

			assert.Len(t, w.Body.String(), 36)
			assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
		}
	})
}

func TestCORSWithConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://pos.example.com"}

	r := gin.New()
	r.Use(CORSWithConfig(cfg))
	r.GET("/", okHandler)

	t.Run("allowed origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://pos.example.com")
		r.ServeHTTP(w, req)

		assert.Equal(t, "https://pos.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight ends with 204", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://pos.example.com")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})
}

func TestSecureWithConfig(t *testing.T) {
	r := gin.New()
	r.Use(SecureWithConfig(SecurityConfig{HSTSEnabled: true, HSTSMaxAge: 600}))
	r.GET("/", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "max-age=600; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 64))))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "ERR_REQUEST_TOO_LARGE", env.Error.Code)
}

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Close)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ok, remaining, _ := limiter.Allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
	ok, _, _ = limiter.Allow("a")
	assert.True(t, ok)
	ok, remaining, retryAfter := limiter.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)
	assert.InDelta(t, 30, retryAfter.Seconds(), 0.001, "one token refills every window/limit")

	ok, _, _ = limiter.Allow("b")
	assert.True(t, ok, "clients have separate buckets")

	now = now.Add(30 * time.Second)
	ok, _, _ = limiter.Allow("a")
	assert.True(t, ok, "refilled token")
	ok, _, _ = limiter.Allow("a")
	assert.False(t, ok)
}

func TestRateLimiter_NoDoubleBurstAcrossWindowEdge(t *testing.T) {
	limiter := NewRateLimiter(5, time.Second)
	t.Cleanup(limiter.Close)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(995 * time.Millisecond)
	limiter.now = func() time.Time { return now }

	// a quiet client sends at the end of one window and the start of the next
	admitted := 0
	for i := 0; i < 10; i++ {
		if ok, _, _ := limiter.Allow("edge"); ok {
			admitted++
		}
		now = now.Add(time.Millisecond)
	}
	assert.Equal(t, 5, admitted, "10ms of traffic never gets more than the burst")

	now = now.Add(time.Second)
	admitted = 0
	for i := 0; i < 10; i++ {
		if ok, _, _ := limiter.Allow("edge"); ok {
			admitted++
		}
	}
	assert.Equal(t, 5, admitted, "full bucket after a quiet window")
}

func TestRateLimiter_CleanupEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 20*time.Millisecond)
	t.Cleanup(limiter.Close)

	limiter.Allow("idle")
	require.Equal(t, 1, limiter.Len())
	assert.Eventually(t, func() bool { return limiter.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestRateLimit_Middleware(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Close)

	r := gin.New()
	r.Use(RequestID(), RateLimit(limiter))
	r.GET("/", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	env := decode(t, w)
	assert.Equal(t, "ERR_RATE_LIMITED", env.Error.Code)
	assert.NotEmpty(t, env.Error.RequestID)
}

func TestNoRoute(t *testing.T) {
	r := gin.New()
	r.NoRoute(NoRoute())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	assert.Equal(t, "ERR_ROUTE_NOT_FOUND", env.Error.Code)
	assert.Equal(t, http.StatusNotFound, env.Status)
}
