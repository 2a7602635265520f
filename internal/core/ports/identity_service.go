package ports

import (
	"context"

	"github.com/taskflow/tracker/internal/core/domain"
)

// PasswordHasher performs one-way salted hashing of plaintext passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never fails loudly: a corrupt hash simply does not match.
	Verify(plaintext, hash string) bool
	// Burn spends the same work as Verify without a stored hash.
	Burn(plaintext string)
}

// TokenIssuer mints and validates signed session tokens.
type TokenIssuer interface {
	Issue(principal *domain.Principal) (string, error)
	Validate(token string) (*domain.Claims, error)
}

// IdentityService establishes who the caller is.
type IdentityService interface {
	Register(ctx context.Context, username, email, password string) (*domain.Principal, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Principal, error)
	ResolveFromToken(ctx context.Context, token string) (*domain.Principal, error)
	IssueToken(principal *domain.Principal) (string, error)
}
