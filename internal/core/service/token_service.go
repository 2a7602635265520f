package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskflow/tracker/internal/core/domain"
)

const (
	// TokenTTL is the fixed lifetime of every session token.
	TokenTTL = 24 * time.Hour

	// DefaultIssuer identifies this service in the iss claim.
	DefaultIssuer = "https://taskflow-app.com"

	minKeyLength = 32
)

var signingMethod = jwt.SigningMethodHS256

// TokenConfig holds the signing keys, loaded once at startup. Keys maps a
// key id to its secret; ActiveKeyID selects the key used to sign. Every
// other entry is a retired key that is still accepted for validation.
type TokenConfig struct {
	Issuer      string
	ActiveKeyID string
	Keys        map[string][]byte
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// TokenService mints and validates HS256 session tokens. It is read-only
// after construction and safe for concurrent use.
type TokenService struct {
	issuer    string
	activeKID string
	keys      map[string][]byte
	now       func() time.Time
}

type sessionClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// NewTokenService validates cfg and returns a ready TokenService.
func NewTokenService(cfg TokenConfig, opts ...TokenOption) (*TokenService, error) {
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if _, ok := cfg.Keys[cfg.ActiveKeyID]; !ok {
		return nil, fmt.Errorf("token config: active key %q not found", cfg.ActiveKeyID)
	}

	keys := make(map[string][]byte, len(cfg.Keys))
	for kid, secret := range cfg.Keys {
		if len(secret) < minKeyLength {
			return nil, fmt.Errorf("token config: key %q must be at least %d bytes", kid, minKeyLength)
		}
		keys[kid] = append([]byte(nil), secret...)
	}

	s := &TokenService{
		issuer:    cfg.Issuer,
		activeKID: cfg.ActiveKeyID,
		keys:      keys,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for principal with the active key.
func (s *TokenService) Issue(principal *domain.Principal) (string, error) {
	roles := principal.Roles
	if len(roles) == 0 {
		roles = domain.DefaultRoles()
	}

	now := s.now()
	claims := sessionClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   principal.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	t := jwt.NewWithClaims(signingMethod, claims)
	t.Header["kid"] = s.activeKID
	return t.SignedString(s.keys[s.activeKID])
}

// Validate verifies the signature, issuer and expiry of token and returns
// its claims. Failures are reported as domain.ErrTokenMalformed,
// domain.ErrTokenInvalid or domain.ErrTokenExpired.
func (s *TokenService) Validate(token string) (*domain.Claims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFor,
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, domain.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrTokenInvalid)
	}

	return &domain.Claims{
		TokenID:   claims.ID,
		Issuer:    claims.Issuer,
		Subject:   claims.Subject,
		Roles:     claims.Roles,
		IssuedAt:  numericTime(claims.IssuedAt),
		ExpiresAt: numericTime(claims.ExpiresAt),
	}, nil
}

// keyFor picks the verification key named by the kid header. Tokens without
// a kid are checked against the active key.
func (s *TokenService) keyFor(t *jwt.Token) (interface{}, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		kid = s.activeKID
	}
	key, ok := s.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return key, nil
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
