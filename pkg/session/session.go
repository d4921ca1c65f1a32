// Package session issues and verifies the signed session tokens carried in
// the session cookie or an Authorization bearer header.
package session

import (
	"context"
	"time"
)

type Role string

const (
	RoleMember Role = "msme"
	RoleAdmin  Role = "admin"
)

// Principal is the authenticated caller. A nil *Principal means anonymous.
type Principal struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored on ctx, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
