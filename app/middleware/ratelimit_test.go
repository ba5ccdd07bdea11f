package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/middleware"
	"github.com/vibast-solutions/ms-go-console/app/ratelimit"

	"github.com/labstack/echo/v4"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("limiter down")
}

func withCaller(actorID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.ContextKeyCaller, &auth.Caller{ActorID: actorID, WorkspaceID: "ws_1"})
			return next(c)
		}
	}
}

func TestLimitMutations(t *testing.T) {
	limiter := middleware.NewRateLimitMiddleware(ratelimit.NewMemory(1, time.Minute))

	rec, _ := run(t, httptest.NewRequest(http.MethodPost, "/", nil), withCaller("user_1"), limiter.LimitMutations)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first mutation to pass, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "1" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected headers: %v", rec.Header())
	}

	rec, seen := run(t, httptest.NewRequest(http.MethodPost, "/", nil), withCaller("user_1"), limiter.LimitMutations)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if seen != nil {
		t.Fatalf("handler should not run")
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatalf("expected reset header")
	}

	rec, _ = run(t, httptest.NewRequest(http.MethodPost, "/", nil), withCaller("user_2"), limiter.LimitMutations)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected a different actor to pass, got %d", rec.Code)
	}
}

func TestLimitMutations_LimiterError(t *testing.T) {
	limiter := middleware.NewRateLimitMiddleware(failingLimiter{})

	rec, _ := run(t, httptest.NewRequest(http.MethodPost, "/", nil), withCaller("user_1"), limiter.LimitMutations)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestLimitMutations_RequiresCaller(t *testing.T) {
	limiter := middleware.NewRateLimitMiddleware(ratelimit.NewMemory(5, time.Minute))

	rec, _ := run(t, httptest.NewRequest(http.MethodPost, "/", nil), limiter.LimitMutations)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}
