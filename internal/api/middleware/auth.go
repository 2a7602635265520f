package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskflow/tracker/internal/core/domain"
)

const principalKey = "principal"

// IdentityResolver turns a bearer token into the principal it names.
type IdentityResolver interface {
	ResolveFromToken(ctx context.Context, token string) (*domain.Principal, error)
}

// PrincipalFrom returns the principal attached by Auth, or nil.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}

// Auth resolves the bearer token and injects the principal into context.
// Every token or lookup failure produces the same 401 response.
func Auth(resolver IdentityResolver, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized()
			}

			principal, err := resolver.ResolveFromToken(c.Request().Context(), token)
			if err != nil {
				if domain.IsTokenError(err) || errors.Is(err, domain.ErrPrincipalNotFound) {
					log.Debug().Err(err).Str("path", c.Path()).Msg("request rejected")
					return unauthorized()
				}
				return err
			}

			c.Set(principalKey, principal)
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

func unauthorized() error {
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}
