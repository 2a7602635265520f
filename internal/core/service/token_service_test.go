package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskflow/tracker/internal/core/domain"
)

var (
	keyV1 = []byte("0123456789abcdef0123456789abcdef")
	keyV2 = []byte("fedcba9876543210fedcba9876543210")
)

func newTestTokenService(t *testing.T, active string, keys map[string][]byte, opts ...TokenOption) *TokenService {
	t.Helper()
	s, err := NewTokenService(TokenConfig{ActiveKeyID: active, Keys: keys}, opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return s
}

func alicePrincipal() *domain.Principal {
	return &domain.Principal{ID: "p-alice", Username: "alice", Roles: []string{domain.RoleUser}}
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV1}, WithClock(func() time.Time { return now }))

	token, err := s.Issue(alicePrincipal())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact JWS, got %q", token)
	}

	claims, err := s.Validate(token)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("expected subject alice, got %q", claims.Subject)
	}
	if claims.Issuer != DefaultIssuer {
		t.Errorf("expected issuer %q, got %q", DefaultIssuer, claims.Issuer)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != domain.RoleUser {
		t.Errorf("unexpected roles %v", claims.Roles)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != TokenTTL {
		t.Errorf("expected ttl %s, got %s", TokenTTL, got)
	}
	if claims.TokenID == "" {
		t.Error("expected a token id")
	}
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	s := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV1})

	a, _ := s.Issue(alicePrincipal())
	b, _ := s.Issue(alicePrincipal())
	ca, _ := s.Validate(a)
	cb, _ := s.Validate(b)
	if ca.TokenID == cb.TokenID {
		t.Fatal("token ids must differ across issues")
	}
}

func TestTokenService_Expired(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	s := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV1}, WithClock(func() time.Time { return clock }))

	token, _ := s.Issue(alicePrincipal())

	clock = issued.Add(TokenTTL - time.Second)
	if _, err := s.Validate(token); err != nil {
		t.Fatalf("token must still be valid just before expiry: %v", err)
	}

	clock = issued.Add(TokenTTL + time.Second)
	if _, err := s.Validate(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_WrongKey(t *testing.T) {
	issuer := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV1})
	other := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV2})

	token, _ := issuer.Issue(alicePrincipal())
	if _, err := other.Validate(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_TamperedPayload(t *testing.T) {
	s := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV1})
	token, _ := s.Issue(alicePrincipal())

	parts := strings.Split(token, ".")
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "bob"})
	forgedParts := strings.Split(mustSign(t, forged, []byte("another-key-another-key-another!!")), ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	if _, err := s.Validate(tampered); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	s := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV1})

	for _, token := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := s.Validate(token); !errors.Is(err, domain.ErrTokenMalformed) {
			t.Errorf("Validate(%q): expected ErrTokenMalformed, got %v", token, err)
		}
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	s := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV1})

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "alice",
		"iss": DefaultIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := s.Validate(mustSign(t, tok, keyV1)); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for HS512, got %v", err)
	}
}

func TestTokenService_RequiresExpiryAndIssuer(t *testing.T) {
	s := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV1})

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice", "iss": DefaultIssuer})
	if _, err := s.Validate(mustSign(t, noExp, keyV1)); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid without exp, got %v", err)
	}

	wrongIss := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"iss": "https://elsewhere.example",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := s.Validate(mustSign(t, wrongIss, keyV1)); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for foreign issuer, got %v", err)
	}
}

func TestTokenService_KeyRotation(t *testing.T) {
	old := newTestTokenService(t, "v1", map[string][]byte{"v1": keyV1})
	oldToken, _ := old.Issue(alicePrincipal())

	rotated := newTestTokenService(t, "v2", map[string][]byte{"v1": keyV1, "v2": keyV2})
	if _, err := rotated.Validate(oldToken); err != nil {
		t.Fatalf("token signed with retired key must validate: %v", err)
	}

	newToken, _ := rotated.Issue(alicePrincipal())
	parsed, _, err := jwt.NewParser().ParseUnverified(newToken, jwt.MapClaims{})
	if err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if parsed.Header["kid"] != "v2" {
		t.Errorf("expected kid v2, got %v", parsed.Header["kid"])
	}

	dropped := newTestTokenService(t, "v2", map[string][]byte{"v2": keyV2})
	if _, err := dropped.Validate(oldToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid once key is removed, got %v", err)
	}
}

func TestNewTokenService_RejectsBadConfig(t *testing.T) {
	if _, err := NewTokenService(TokenConfig{ActiveKeyID: "v1", Keys: map[string][]byte{"v2": keyV2}}); err == nil {
		t.Error("expected error when active key is missing")
	}
	if _, err := NewTokenService(TokenConfig{ActiveKeyID: "v1", Keys: map[string][]byte{"v1": []byte("short")}}); err == nil {
		t.Error("expected error for short key")
	}
}

func mustSign(t *testing.T, tok *jwt.Token, key []byte) string {
	t.Helper()
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}
