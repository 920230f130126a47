package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
	"github.com/mknows/bootcamp-api/internal/pkg/metrics"
)

// RateLimit applies the named policy per client IP. When the limiter is
// unavailable the request is let through.
func RateLimit(limiter ports.RateLimiter, policy string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, err := limiter.Allow(c.Request().Context(), policy, ClientInfo(c).IPAddress)
			if err != nil {
				log.Warn().Err(err).Str("policy", policy).Msg("rate limiter unavailable")
				return next(c)
			}
			if !ok {
				metrics.RateLimitedTotal.WithLabelValues(policy).Inc()
				return domain.ErrTooManyRequests
			}
			return next(c)
		}
	}
}
