package ports

import (
	"context"

	"github.com/taskflow/tracker/internal/core/domain"
)

// CredentialStore persists principals. Usernames are unique: Create fails
// with domain.ErrUsernameTaken instead of overwriting.
type CredentialStore interface {
	Create(ctx context.Context, principal *domain.Principal) error
	// FindByUsername returns domain.ErrPrincipalNotFound when absent.
	FindByUsername(ctx context.Context, username string) (*domain.Principal, error)
}
