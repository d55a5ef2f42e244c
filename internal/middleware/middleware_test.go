package middleware

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestApp(cfg Config) (*fiber.App, Middleware) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	m := New(logger, cfg)
	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	app.Use(m.NewLoggingMiddleware())
	app.Get("/ping", m.NewRateLimiter, func(c *fiber.Ctx) error {
		return c.SendString(m.GetRequestID(c))
	})
	return app, m
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	app, _ := newTestApp(Config{})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)

	id := resp.Header.Get(RequestIDKey)
	assert.Len(t, id, 26, "ULID")
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	app, _ := newTestApp(Config{})

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDKey, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "req-123", resp.Header.Get(RequestIDKey))
}

func TestGetRequestID_Unknown(t *testing.T) {
	m := New(logrus.New(), Config{})
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(m.GetRequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	assert.Equal(t, "unknown", buf.String())
}

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	app, _ := newTestApp(Config{Rate: 0.001, Burst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{200, 200, fiber.StatusTooManyRequests}, codes)
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	app, _ := newTestApp(Config{Rate: 0.5, Burst: 1})

	_, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	r := newRateLimiter(rate.Limit(1), 1)
	start := time.Now()

	ok, _ := r.allow("10.0.0.1", start)
	assert.True(t, ok)
	ok, _ = r.allow("10.0.0.2", start)
	assert.True(t, ok)
	assert.Equal(t, 2, r.size())

	later := start.Add(visitorIdle + time.Minute)
	ok, _ = r.allow("10.0.0.2", later)
	assert.True(t, ok, "bucket refilled")
	assert.Equal(t, 1, r.size())
}

func TestRequestID_ReplacesOversized(t *testing.T) {
	app, _ := newTestApp(Config{})

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDKey, strings.Repeat("x", maxRequestIDLen+1))
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Len(t, resp.Header.Get(RequestIDKey), 26)
}

func TestSanitizeRequestBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"multipart", "multipart/form-data; boundary=x", "--x", "[multipart body]"},
		{"not json", "text/plain", "hello", "[non-JSON body]"},
		{"data url dropped", "application/json", `{"imageDataUrl":"data:image/png;base64,AAAA"}`, `{"imageDataUrl":"[TRUNCATED]"}`},
		{"small json kept", "application/json", `{"filter":"BLUR"}`, `{"filter":"BLUR"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeRequestBody(tt.contentType, []byte(tt.body)))
		})
	}
}
