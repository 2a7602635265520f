package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/tracker/internal/api/middleware"
	"github.com/taskflow/tracker/internal/core/domain"
)

// ctxPrincipal extracts the principal injected by the Auth middleware.
// Its absence means the route was wired without Auth; fail closed with 401.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return principal, nil
}
