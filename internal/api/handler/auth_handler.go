package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/tracker/internal/core/domain"
	"github.com/taskflow/tracker/internal/core/ports"
)

type AuthHandler struct {
	identity ports.IdentityService
}

func NewAuthHandler(identity ports.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Register creates a new principal and returns a session token.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}

	principal, err := h.identity.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}

	token, err := h.identity.IssueToken(principal)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{Token: token, Username: principal.Username})
}

// Login authenticates a principal and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}

	principal, err := h.identity.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	token, err := h.identity.IssueToken(principal)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, Username: principal.Username})
}
