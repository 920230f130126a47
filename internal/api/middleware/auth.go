package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/ports"
)

const (
	// CookieName carries the bearer token for browser clients.
	CookieName = "Authorization"

	principalKey = "principal"
)

// ClientInfo derives the device fingerprint and IP of the request. The same
// derivation is used at login and by the gate.
func ClientInfo(c echo.Context) domain.ClientInfo {
	return domain.ClientInfo{
		Fingerprint: domain.Fingerprint(c.Request().UserAgent()),
		IPAddress:   strings.TrimPrefix(c.RealIP(), "::ffff:"),
	}
}

// BearerToken returns the token from the Authorization cookie, falling back to
// an "Authorization: Bearer <token>" header.
func BearerToken(c echo.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth authenticates the request and stores the principal in the context.
// Every rejection reaches the error handler as domain.ErrUnauthorized.
func Auth(gate ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := gate.Authenticate(c.Request().Context(), BearerToken(c), ClientInfo(c))
			if err != nil {
				return err
			}
			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// Principal returns the identity stored by Auth, or nil.
func Principal(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}
