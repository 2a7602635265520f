package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/taskflow/tracker/internal/core/domain"
)

// RequireRole lets the request through when the authenticated principal
// holds at least one of roles. It must run after Auth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := PrincipalFrom(c)
			if principal == nil {
				return unauthorized()
			}
			for _, r := range roles {
				if principal.HasRole(r) {
					return next(c)
				}
			}
			return domain.ErrForbidden
		}
	}
}
