package httpapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/metrics"
)

// requestMetrics records request counts and latency per route pattern.
func requestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
