package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/busfleet/opsproxy/internal/middleware"
	"github.com/busfleet/opsproxy/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fakeRateLimiter struct {
	allowed    int
	retryAfter time.Duration
	err        error
	gotKey     string
}

func (f *fakeRateLimiter) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	f.gotKey = key
	if f.err != nil {
		return nil, f.err
	}
	return &redis_rate.Result{
		Allowed:    f.allowed,
		RetryAfter: f.retryAfter,
	}, nil
}

func TestRateLimitMiddleware(t *testing.T) {
	testCases := []struct {
		name               string
		limiter            *fakeRateLimiter
		expectedStatusCode int
		expectNextCalled   bool
		expectedLimited    float64
	}{
		{
			name:               "Allowed",
			limiter:            &fakeRateLimiter{allowed: 1},
			expectedStatusCode: http.StatusOK,
			expectNextCalled:   true,
		},
		{
			name:               "Limited",
			limiter:            &fakeRateLimiter{allowed: 0, retryAfter: 30 * time.Second},
			expectedStatusCode: http.StatusTooEarly,
			expectedLimited:    1,
		},
		{
			name:               "LimiterError",
			limiter:            &fakeRateLimiter{err: errors.New("redis down")},
			expectedStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			metricsManager := metrics.NewTestManager()

			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
			})
			handler := middleware.RateLimit(tc.limiter, "login", 5, metricsManager)(next)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/api/login", nil)
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.Equal(t, tc.expectNextCalled, nextCalled)
			assert.Equal(t, "login", tc.limiter.gotKey)
			assert.Equal(t, tc.expectedLimited, testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))
		})
	}
}
