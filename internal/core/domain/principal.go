package domain

import "time"

// RoleUser is granted to every registered principal.
const RoleUser = "USER"

// DefaultRoles returns the role set assigned at registration.
func DefaultRoles() []string {
	return []string{RoleUser}
}

// Principal models an authenticated actor in the system.
type Principal struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the principal carries role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Claims is the identity recovered from a validated session token.
type Claims struct {
	TokenID   string
	Issuer    string
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
