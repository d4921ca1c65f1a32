package identity

import (
	"context"

	"chamber122/pkg/session"
	"chamber122/services/business"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// Identity is the caller as seen by content rules. It lives for one request.
type Identity struct {
	Principal *session.Principal
	Business  *business.Business
	Tier      Tier
}

func (i *Identity) UserID() string {
	if i == nil || i.Principal == nil {
		return ""
	}
	return i.Principal.UserID
}

func (i *Identity) BusinessID() string {
	if i == nil || i.Business == nil {
		return ""
	}
	return i.Business.ID
}

// OwnsBusiness reports whether the caller owns businessID. Empty ids never
// match, so guest records are owned by nobody.
func (i *Identity) OwnsBusiness(businessID string) bool {
	return businessID != "" && i.BusinessID() == businessID
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Tier == TierAdmin
}

// BusinessLoader is the part of business.Service the resolver needs.
type BusinessLoader interface {
	GetByOwner(ctx context.Context, userID string) (*business.Business, error)
}

type Resolver struct {
	businesses BusinessLoader
}

type ResolverParams struct {
	fx.In
	Businesses *business.Service
}

func NewResolver(p ResolverParams) *Resolver {
	return &Resolver{businesses: p.Businesses}
}

func NewResolverWith(loader BusinessLoader) *Resolver {
	return &Resolver{businesses: loader}
}

// Resolve loads the principal's business and derives the tier. A nil
// principal resolves to a guest without touching storage.
func (r *Resolver) Resolve(ctx context.Context, principal *session.Principal) (*Identity, error) {
	id := &Identity{Principal: principal}
	if principal != nil {
		b, err := r.businesses.GetByOwner(ctx, principal.UserID)
		if err != nil {
			return nil, err
		}
		id.Business = b
	}
	id.Tier = ResolveTier(principal, id.Business)
	return id, nil
}

type identityKey struct{}

const identityGinKey = "identity"

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// Middleware resolves the identity for the session principal, if any. It
// must run after session.Manager.Authenticate.
func Middleware(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := r.Resolve(c.Request.Context(), session.Current(c))
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		c.Set(identityGinKey, id)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// Current returns the identity resolved by Middleware, falling back to a
// guest so handlers never see nil.
func Current(c *gin.Context) *Identity {
	if v, ok := c.Get(identityGinKey); ok {
		if id, ok := v.(*Identity); ok {
			return id
		}
	}
	return &Identity{Tier: TierGuest}
}

// Subject names the caller for access policies.
func Subject(c *gin.Context) string {
	return Current(c).Tier.String()
}
