package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskflow/tracker/internal/api/middleware"
	"github.com/taskflow/tracker/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, string) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)
	return rec.Code, errorMessage(t, rec)
}

func TestHTTPErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		err      error
		wantCode int
		wantMsg  string
	}{
		{fmt.Errorf("%w: title is required", domain.ErrValidation), http.StatusBadRequest, "validation failed: title is required"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{domain.ErrTokenExpired, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrPrincipalNotFound, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{domain.ErrTaskNotFound, http.StatusNotFound, "task not found"},
		{domain.ErrUsernameTaken, http.StatusConflict, "username already taken"},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		code, msg := renderError(t, tc.err)
		if code != tc.wantCode || msg != tc.wantMsg {
			t.Errorf("%v: got %d %q, want %d %q", tc.err, code, msg, tc.wantCode, tc.wantMsg)
		}
	}
}

func TestRequireRole_RenderedByErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
	e.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set("principal", &domain.Principal{Username: "guest", Roles: []string{"GUEST"}})
				return next(c)
			}
		},
		middleware.RequireRole(domain.RoleUser),
	)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "access forbidden" {
		t.Fatalf("expected envelope message, got %q", msg)
	}
}
