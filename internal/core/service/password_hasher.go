package service

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// BcryptHasher hashes passwords with bcrypt. The salt is embedded in every
// hash, so hashing the same input twice yields different output.
type BcryptHasher struct {
	cost      int
	dummyHash []byte
}

// NewBcryptHasher returns a hasher using cost, falling back to
// DefaultBcryptCost when cost is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	h := &BcryptHasher{cost: cost}
	// Only used to equalise timing; the plaintext is never a real password.
	h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskflow-timing-equaliser"), cost)
	return h
}

// Hash returns the bcrypt hash of plaintext. bcrypt rejects inputs longer
// than 72 bytes.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes never match.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Burn performs a comparison against a dummy hash of the same cost.
func (h *BcryptHasher) Burn(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plaintext))
}
