package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskflow/tracker/internal/core/domain"
	"github.com/taskflow/tracker/internal/core/ports"
	"github.com/taskflow/tracker/internal/pkg/metrics"
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// IdentityService implements registration, login and token resolution.
type IdentityService struct {
	store  ports.CredentialStore
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	logger zerolog.Logger
}

func NewIdentityService(store ports.CredentialStore, hasher ports.PasswordHasher, tokens ports.TokenIssuer, logger zerolog.Logger) *IdentityService {
	return &IdentityService{store: store, hasher: hasher, tokens: tokens, logger: logger}
}

// Register creates a principal with the default role set.
func (s *IdentityService) Register(ctx context.Context, username, email, password string) (*domain.Principal, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: username, email and password are required", domain.ErrInvalidInput)
	}
	if len(password) > maxPasswordBytes {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid_input").Inc()
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}

	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "username_taken").Inc()
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrPrincipalNotFound) {
		return nil, fmt.Errorf("lookup principal: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	principal := &domain.Principal{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        domain.DefaultRoles(),
		CreatedAt:    time.Now().UTC(),
	}

	// The store enforces uniqueness too; a concurrent registration surfaces
	// here as ErrUsernameTaken.
	if err := s.store.Create(ctx, principal); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			metrics.AuthAttemptsTotal.WithLabelValues("register", "username_taken").Inc()
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("create principal: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	s.logger.Info().Str("principal_id", principal.ID).Str("username", principal.Username).Msg("principal registered")
	return principal, nil
}

// Authenticate verifies username and password. An unknown username and a
// wrong password produce the same error after the same hashing work.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*domain.Principal, error) {
	if username == "" || password == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	principal, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			s.hasher.Burn(password)
			metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}

	if !s.hasher.Verify(password, principal.PasswordHash) {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	return principal, nil
}

// ResolveFromToken validates token and loads the principal it names. A
// token that outlived its account fails with domain.ErrPrincipalNotFound.
func (s *IdentityService) ResolveFromToken(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("token", tokenFailureReason(err)).Inc()
		return nil, err
	}

	principal, err := s.store.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("token", "principal_not_found").Inc()
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("token", "success").Inc()
	return principal, nil
}

// IssueToken mints a session token for principal.
func (s *IdentityService) IssueToken(principal *domain.Principal) (string, error) {
	token, err := s.tokens.Issue(principal)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
