package session

import (
	"net/http"
	"strings"
	"time"

	"chamber122/pkg/config"
	"chamber122/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalGinKey = "session.principal"

// Manager ties the token issuer to the cookie settings and revocation list.
type Manager struct {
	tokens     *TokenIssuer
	revoked    RevocationStore
	cookieName string
	secure     bool
}

func NewManager(cfg *config.Config, tokens *TokenIssuer, revoked RevocationStore) *Manager {
	name := cfg.Session.Name
	if name == "" {
		name = "session"
	}
	return &Manager{
		tokens:     tokens,
		revoked:    revoked,
		cookieName: name,
		secure:     cfg.Session.Secure || cfg.AppEnv == "production",
	}
}

func (m *Manager) Tokens() *TokenIssuer { return m.tokens }

func (m *Manager) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, token, int(m.tokens.TTL()/time.Second), "/", "", m.secure, true)
}

func (m *Manager) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}

func (m *Manager) rawToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if v, err := c.Cookie(m.cookieName); err == nil {
		return v
	}
	return ""
}

// Authenticate resolves the principal when a valid token is present and
// leaves the request anonymous otherwise. It never rejects.
func (m *Manager) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := m.rawToken(c)
		if raw == "" {
			c.Next()
			return
		}

		p, err := m.tokens.Parse(raw)
		if err != nil {
			c.Next()
			return
		}

		// A failed lookup leaves the request anonymous so revoked tokens
		// stay revoked while the store is unreachable.
		revoked, err := m.revoked.IsRevoked(c.Request.Context(), p.TokenID)
		if err != nil {
			zap.L().Warn("revocation lookup failed", zap.String("token_id", p.TokenID), zap.Error(err))
			c.Next()
			return
		}
		if revoked {
			c.Next()
			return
		}

		SetCurrent(c, p)
		c.Next()
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Current(c) == nil {
			c.Error(errutil.Unauthorized("authentication required", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetCurrent attaches p to the gin and request contexts.
func SetCurrent(c *gin.Context, p *Principal) {
	c.Set(principalGinKey, p)
	c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
}

// Current returns the principal resolved by Authenticate, or nil.
func Current(c *gin.Context) *Principal {
	if v, ok := c.Get(principalGinKey); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}

// Revoke invalidates the token id until its natural expiry.
func (m *Manager) Revoke(c *gin.Context, p *Principal) error {
	if p == nil {
		return nil
	}
	return m.revoked.Revoke(c.Request.Context(), p.TokenID, time.Until(p.ExpiresAt))
}
