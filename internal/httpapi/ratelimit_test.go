package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func invokeCronMiddleware(t *testing.T, server *Server, configure func(*http.Request)) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest("POST", "/api/v1/cron/dedup", nil)
	if configure != nil {
		configure(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := server.requireCronToken()(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, reached
}

func TestRequireCronTokenDisabledWithoutConfig(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zerolog.Nop(), Options{})
	rec, reached := invokeCronMiddleware(t, server, nil)
	if reached {
		t.Fatalf("handler should not run when cron is disabled")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireCronTokenRejectsWrongToken(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zerolog.Nop(), Options{CronToken: "secret"})
	rec, reached := invokeCronMiddleware(t, server, func(req *http.Request) {
		req.Header.Set(cronTokenHeader, "wrong")
	})
	if reached {
		t.Fatalf("handler should not run with a wrong token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireCronTokenAcceptsHeaderToken(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zerolog.Nop(), Options{CronToken: "secret"})
	rec, reached := invokeCronMiddleware(t, server, func(req *http.Request) {
		req.Header.Set(cronTokenHeader, "secret")
	})
	if !reached {
		t.Fatalf("handler should run with the right token")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireCronTokenAcceptsBearerToken(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zerolog.Nop(), Options{CronToken: "secret"})
	_, reached := invokeCronMiddleware(t, server, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer secret")
	})
	if !reached {
		t.Fatalf("handler should run with a bearer token")
	}
}

func TestPerSecondLimiterEnforcesBurst(t *testing.T) {
	t.Parallel()

	limiter := perSecondLimiter(2)
	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow() {
			allowed++
		}
	}
	// Burst is twice the per-second rate.
	if allowed != 4 {
		t.Fatalf("expected 4 immediate permits, got %d", allowed)
	}
}

func TestPerMinuteLimiterEnforcesBurst(t *testing.T) {
	t.Parallel()

	limiter := perMinuteLimiter(3)
	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("expected 3 immediate permits, got %d", allowed)
	}
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	t.Parallel()

	server := NewServer(nil, zerolog.Nop(), Options{})
	limiter := perSecondLimiter(1)
	handler := server.rateLimit(limiter)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e := echo.New()
	lastCode := 0
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/api/v1/ingest/news", nil)
		rec := httptest.NewRecorder()
		if err := handler(e.NewContext(req, rec)); err != nil {
			t.Fatalf("middleware returned error: %v", err)
		}
		lastCode = rec.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", lastCode)
	}
}
