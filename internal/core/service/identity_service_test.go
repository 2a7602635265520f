package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskflow/tracker/internal/core/domain"
)

type stubCredentialStore struct {
	principals map[string]*domain.Principal
	findErr    error
	createErr  error
}

func newStubCredentialStore() *stubCredentialStore {
	return &stubCredentialStore{principals: make(map[string]*domain.Principal)}
}

func (s *stubCredentialStore) Create(_ context.Context, p *domain.Principal) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, exists := s.principals[p.Username]; exists {
		return domain.ErrUsernameTaken
	}
	clone := *p
	s.principals[p.Username] = &clone
	return nil
}

func (s *stubCredentialStore) FindByUsername(_ context.Context, username string) (*domain.Principal, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	p, ok := s.principals[username]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	clone := *p
	return &clone, nil
}

// countingHasher records how often the timing equaliser ran.
type countingHasher struct {
	*BcryptHasher
	burns int
}

func (h *countingHasher) Burn(plaintext string) {
	h.burns++
	h.BcryptHasher.Burn(plaintext)
}

func newTestIdentityService(t *testing.T) (*IdentityService, *stubCredentialStore, *countingHasher) {
	t.Helper()
	store := newStubCredentialStore()
	hasher := &countingHasher{BcryptHasher: NewBcryptHasher(bcrypt.MinCost)}
	tokens := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV1})
	return NewIdentityService(store, hasher, tokens, discardLogger), store, hasher
}

func TestIdentityService_Register_Success(t *testing.T) {
	svc, store, _ := newTestIdentityService(t)

	p, err := svc.Register(context.Background(), "alice", "alice@example.com", "pass123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if p.ID == "" {
		t.Error("expected an assigned id")
	}
	if !p.HasRole(domain.RoleUser) {
		t.Errorf("expected default role %q, got %v", domain.RoleUser, p.Roles)
	}

	stored := store.principals["alice"]
	if stored == nil {
		t.Fatal("principal not persisted")
	}
	if stored.PasswordHash == "pass123" || !strings.HasPrefix(stored.PasswordHash, "$2") {
		t.Errorf("password must be stored as a bcrypt hash, got %q", stored.PasswordHash)
	}
}

func TestIdentityService_Register_Duplicate(t *testing.T) {
	svc, store, _ := newTestIdentityService(t)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "pass123"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(context.Background(), "alice", "other@example.com", "different")
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if store.principals["alice"].Email != "alice@example.com" {
		t.Error("existing principal must be left untouched")
	}
}

func TestIdentityService_Register_RaceSurfacesAsTaken(t *testing.T) {
	svc, store, _ := newTestIdentityService(t)
	store.createErr = domain.ErrUsernameTaken

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "pass123")
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestIdentityService_Register_InvalidInput(t *testing.T) {
	svc, _, _ := newTestIdentityService(t)

	cases := []struct{ username, email, password string }{
		{"", "a@example.com", "pass123"},
		{"alice", "", "pass123"},
		{"alice", "a@example.com", ""},
		{"alice", "a@example.com", strings.Repeat("x", 73)},
	}
	for _, tc := range cases {
		if _, err := svc.Register(context.Background(), tc.username, tc.email, tc.password); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("Register(%q, %q, len=%d): expected ErrInvalidInput, got %v", tc.username, tc.email, len(tc.password), err)
		}
	}
}

func TestIdentityService_Authenticate(t *testing.T) {
	svc, _, hasher := newTestIdentityService(t)
	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "pass123"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	p, err := svc.Authenticate(context.Background(), "alice", "pass123")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if p.Username != "alice" {
		t.Errorf("expected alice, got %q", p.Username)
	}

	_, wrongPass := svc.Authenticate(context.Background(), "alice", "wrong")
	_, unknown := svc.Authenticate(context.Background(), "nobody", "pass123")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", wrongPass)
	}
	if !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Errorf("errors must be indistinguishable: %q vs %q", wrongPass, unknown)
	}
	if hasher.burns != 1 {
		t.Errorf("expected one dummy comparison for the unknown user, got %d", hasher.burns)
	}
}

func TestIdentityService_ResolveFromToken(t *testing.T) {
	svc, store, _ := newTestIdentityService(t)
	p, _ := svc.Register(context.Background(), "alice", "alice@example.com", "pass123")

	token, err := svc.IssueToken(p)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	resolved, err := svc.ResolveFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ResolveFromToken returned error: %v", err)
	}
	if resolved.ID != p.ID {
		t.Errorf("expected principal %q, got %q", p.ID, resolved.ID)
	}

	delete(store.principals, "alice")
	if _, err := svc.ResolveFromToken(context.Background(), token); !errors.Is(err, domain.ErrPrincipalNotFound) {
		t.Fatalf("expected ErrPrincipalNotFound after deletion, got %v", err)
	}
}

func TestIdentityService_ResolveFromToken_BadToken(t *testing.T) {
	svc, _, _ := newTestIdentityService(t)

	_, err := svc.ResolveFromToken(context.Background(), "not-a-token")
	if !domain.IsTokenError(err) {
		t.Fatalf("expected a token error, got %v", err)
	}
}

func TestIdentityService_StoreFailure(t *testing.T) {
	svc, store, _ := newTestIdentityService(t)
	store.findErr = errors.New("db unavailable")

	_, err := svc.Authenticate(context.Background(), "alice", "pass123")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected a storage error, got %v", err)
	}
}
