package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newNoopLoggerLimit() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})
}

func requestFrom(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = ip + ":54321"
	return req
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := newNoopLoggerLimit()

	t.Run("allows requests within burst", func(t *testing.T) {
		mw := RateLimitMiddleware(logger, NewIPRateLimiter(1, 3))(okHandler(t))
		for range 3 {
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, requestFrom("10.0.0.1"))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "success", w.Body.String())
		}
	})

	t.Run("blocks requests exceeding limit with json body", func(t *testing.T) {
		mw := RateLimitMiddleware(logger, NewIPRateLimiter(1, 1))(okHandler(t))

		w := httptest.NewRecorder()
		mw.ServeHTTP(w, requestFrom("10.0.0.2"))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		mw.ServeHTTP(w, requestFrom("10.0.0.2"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"ok":false,"error":"too many requests"}`, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	})

	t.Run("limits are per client ip", func(t *testing.T) {
		mw := RateLimitMiddleware(logger, NewIPRateLimiter(1, 1))(okHandler(t))

		w := httptest.NewRecorder()
		mw.ServeHTTP(w, requestFrom("10.0.0.3"))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		mw.ServeHTTP(w, requestFrom("10.0.0.4"))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		mw.ServeHTTP(w, requestFrom("10.0.0.3"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("handler not called when limited", func(t *testing.T) {
		var calls int
		next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		})
		mw := RateLimitMiddleware(logger, NewIPRateLimiter(1, 1))(next)
		for range 3 {
			mw.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.5"))
		}
		assert.Equal(t, 1, calls)
	})
}

func TestIPRateLimiter_RefillsAndForgetsIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"))

	now = now.Add(idleLimiterTTL + time.Second)
	assert.True(t, l.Allow("2.2.2.2"))
	l.mu.Lock()
	_, kept := l.visitors["1.1.1.1"]
	l.mu.Unlock()
	assert.False(t, kept)
}

func TestIPRateLimiter_SweepsAtMostOncePerInterval(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))

	l.mu.Lock()
	l.visitors["9.9.9.9"] = &visitor{lastSeen: now.Add(-2 * idleLimiterTTL)}
	l.mu.Unlock()

	now = now.Add(sweepInterval / 2)
	assert.True(t, l.Allow("2.2.2.2"))
	l.mu.Lock()
	_, kept := l.visitors["9.9.9.9"]
	l.mu.Unlock()
	assert.True(t, kept, "no sweep before the interval elapses")

	now = now.Add(sweepInterval)
	assert.True(t, l.Allow("3.3.3.3"))
	l.mu.Lock()
	_, kept = l.visitors["9.9.9.9"]
	_, active := l.visitors["2.2.2.2"]
	l.mu.Unlock()
	assert.False(t, kept)
	assert.True(t, active)
}
