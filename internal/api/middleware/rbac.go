package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/mknows/bootcamp-api/internal/core/domain"
	"github.com/mknows/bootcamp-api/internal/core/service"
)

// AuthorizedRoles passes only principals holding at least one of roles. It must
// run after Auth.
func AuthorizedRoles(roles ...domain.RoleName) echo.MiddlewareFunc {
	allowed := domain.NewRoleSet(roles...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := service.Authorize(Principal(c), allowed); err != nil {
				return err
			}
			return next(c)
		}
	}
}
