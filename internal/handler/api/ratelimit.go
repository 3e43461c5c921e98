package api

import (
	"StockCast/internal/service/ratelimit"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RateLimit rejects clients that exceed their token bucket with 429. A nil
// limiter disables the check.
func RateLimit(rl *ratelimit.Limiter, l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl == nil {
				return next(c)
			}
			ip := c.RealIP()
			if !rl.Allow(ip) {
				l.Warn("rate limited",
					applogger.String("remote", ip),
					applogger.String("path", c.Path()),
				)
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("Too many requests, slow down"))
			}
			return next(c)
		}
	}
}
