package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const cronTokenHeader = "X-Cron-Token"

func perSecondLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), perSecond*2)
}

func perMinuteLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// rateLimit rejects requests over the shared limiter's budget with 429.
func (s *Server) rateLimit(limiter *rate.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow() {
				return fail(c, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			}
			return next(c)
		}
	}
}

// requireCronToken gates the cron endpoints behind a shared secret. With no
// token configured the endpoints are disabled outright.
func (s *Server) requireCronToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			configured := s.opts.CronToken
			if configured == "" {
				return failForbidden(c, "Cron endpoints are disabled")
			}

			presented := strings.TrimSpace(c.Request().Header.Get(cronTokenHeader))
			if presented == "" {
				if header := strings.TrimSpace(c.Request().Header.Get("Authorization")); strings.HasPrefix(header, "Bearer ") {
					presented = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
				}
			}
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) != 1 {
				return fail(c, http.StatusUnauthorized, "Invalid cron token", nil)
			}
			return next(c)
		}
	}
}
