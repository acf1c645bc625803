package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub-api/internal/api/metrics"
	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

// principalKey is the echo context key holding the authenticated principal.
const principalKey = "principal"

// Auth resolves the bearer token through the auth service and injects the
// principal into the context. Every rejection is domain.ErrTokenInvalid.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.TokenValidationsTotal.WithLabelValues("rejected").Inc()
				return domain.ErrTokenInvalid
			}

			p, err := auth.AuthenticateRequest(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrTokenInvalid) {
					metrics.TokenValidationsTotal.WithLabelValues("rejected").Inc()
				} else {
					metrics.TokenValidationsTotal.WithLabelValues("error").Inc()
				}
				return err
			}

			metrics.TokenValidationsTotal.WithLabelValues("authenticated").Inc()
			SetPrincipal(c, *p)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// SetPrincipal stores p in the request context.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal injected by Auth.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok && p.ID != ""
}
