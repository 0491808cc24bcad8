package ratelimit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Allow(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New(2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	// Buckets are per key.
	assert.True(t, l.Allow("b"))

	// Half a minute refills one token at 2/min.
	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiter_Disabled(t *testing.T) {
	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow("a"))

	l := New(0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a"))
	}
}

func TestMiddleware(t *testing.T) {
	handler := Middleware(New(1), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
}

func TestMiddleware_IgnoresForwardedHeaders(t *testing.T) {
	limiter := New(1)
	handler := Middleware(limiter, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, limiter.Len())
}

func TestMiddleware_TrustProxyUsesNearestHop(t *testing.T) {
	limiter := New(1)
	handler := Middleware(limiter, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
		req.RemoteAddr = "10.0.0.2:8080"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// A client-forged prefix does not change the key the proxy appended.
	assert.Equal(t, http.StatusOK, send("1.1.1.1, 203.0.113.5"))
	assert.Equal(t, http.StatusTooManyRequests, send("2.2.2.2, 203.0.113.5"))
	assert.Equal(t, http.StatusOK, send("203.0.113.6"))
	assert.Equal(t, 2, limiter.Len())
}

func TestLimiter_SweepsIdleBuckets(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New(1)
	l.now = func() time.Time { return now }

	for i := 0; i < 20; i++ {
		l.Allow(fmt.Sprintf("client-%d", i))
	}
	assert.Equal(t, 20, l.Len())

	now = now.Add(2 * time.Minute)
	assert.True(t, l.Allow("fresh"))
	assert.Equal(t, 1, l.Len())

	// Swept clients start with a full bucket again.
	assert.True(t, l.Allow("client-3"))
}
