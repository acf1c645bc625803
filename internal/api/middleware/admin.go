package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub-api/internal/api/metrics"
	"github.com/taskhub/taskhub-api/internal/core/domain"
)

// RequireAdmin lets only administrators through. It must run after Auth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return domain.ErrTokenInvalid
			}
			if !p.IsAdmin() {
				metrics.AccessDeniedTotal.WithLabelValues("admin").Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
