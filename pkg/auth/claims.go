// Package auth resolves the authenticated principal for guarded operations.
// Tokens are issued by the identity collaborator; this package only verifies
// them and exposes the principal through the request context.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles known to the backend.
const (
	RoleUser  = "USER"
	RoleTeam  = "TEAM"
	RoleAdmin = "ADMIN"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const principalKey contextKey = "principal"

// Claims is the JWT claims structure issued by the identity collaborator.
type Claims struct {
	jwt.RegisteredClaims
	Role   string `json:"role,omitempty"`
	TeamID string `json:"team_id,omitempty"`
}

// Principal is the authenticated caller of a guarded operation.
type Principal struct {
	ID     uuid.UUID
	Role   string
	TeamID *uuid.UUID
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal retrieves the principal from the context.
// Returns nil and false if no principal is present.
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}
