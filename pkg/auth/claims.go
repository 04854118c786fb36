package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles understood by txshield.
const (
	RoleAdmin     = "admin"
	RoleAnalyst   = "analyst"
	RoleUser      = "user"
	RoleAPIClient = "api_client"
)

// Claims is the access token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Roles  []string  `json:"roles"`
}

// HasRole reports whether role was granted.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// IsAdmin reports whether the admin role was granted.
func (c Claims) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}

// CanReadAll reports whether the caller may see records of every owner.
func (c Claims) CanReadAll() bool {
	return c.IsAdmin() || c.HasRole(RoleAnalyst)
}
