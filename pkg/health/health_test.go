package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func serve(t *testing.T, hf http.HandlerFunc) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	hf(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLiveness(t *testing.T) {
	h := NewHandler(time.Second)
	h.RegisterCritical("postgres", down)

	code, resp := serve(t, h.Liveness)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		postgres   Checker
		kafka      Checker
		wantCode   int
		wantStatus Status
	}{
		{"all up", up, up, http.StatusOK, StatusUp},
		{"non-critical down", up, down, http.StatusOK, StatusDegraded},
		{"critical down", down, up, http.StatusServiceUnavailable, StatusDown},
		{"both down", down, down, http.StatusServiceUnavailable, StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(time.Second)
			h.RegisterCritical("postgres", tt.postgres)
			h.RegisterNonCritical("kafka", tt.kafka)

			code, resp := serve(t, h.Readiness)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.True(t, resp.Checks["postgres"].Critical)
			assert.False(t, resp.Checks["kafka"].Critical)
		})
	}
}

func TestCheck_ReportsErrorText(t *testing.T) {
	h := NewHandler(time.Second)
	h.RegisterCritical("redis", down)

	resp := h.Check(context.Background())
	assert.Equal(t, "connection refused", resp.Checks["redis"].Error)
}

func TestCheck_TimeoutReachesChecker(t *testing.T) {
	h := NewHandler(20 * time.Millisecond)
	h.RegisterCritical("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	resp := h.Check(context.Background())
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["slow"].Error)
}
