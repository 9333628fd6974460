package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimit_BurstThen429(t *testing.T) {
	var buf bytes.Buffer
	store := newVisitorStore(0.001, 2, time.Minute)
	h := rateLimit(store, newTestLogger(&buf))(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Contains(t, buf.String(), "rate limit exceeded")
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	var buf bytes.Buffer
	store := newVisitorStore(0.001, 1, time.Minute)
	h := rateLimit(store, newTestLogger(&buf))(http.HandlerFunc(okHandler))

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, addr)
	}
	assert.Equal(t, 2, store.len())
}

func TestVisitorStore_SweepEvictsIdle(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newVisitorStore(10, 10, time.Minute)
	store.now = func() time.Time { return now }

	store.get("1.1.1.1")
	now = now.Add(30 * time.Second)
	store.get("2.2.2.2")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, store.sweep())
	assert.Equal(t, 1, store.len())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "bogus, 203.0.113.7, 10.0.0.1"}, "1.2.3.4:80", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "1.2.3.4:80", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.1:4444", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
