package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chamber122/pkg/config"
	"chamber122/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Session.Name = "session"
	cfg.Session.Secret = strings.Repeat("k", 32)
	cfg.Session.Issuer = "chamber122"
	cfg.Session.TTL = time.Hour
	return cfg
}

func TestTokenIssueAndParse(t *testing.T) {
	issuer, err := NewTokenIssuer(testConfig())
	require.NoError(t, err)

	raw, p, err := issuer.Issue("42", "owner@example.com", RoleMember)
	require.NoError(t, err)
	require.NotEmpty(t, p.TokenID)

	got, err := issuer.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "42", got.UserID)
	require.Equal(t, "owner@example.com", got.Email)
	require.Equal(t, RoleMember, got.Role)
	require.Equal(t, p.TokenID, got.TokenID)
}

func TestTokenParseRejectsExpiredAndForeign(t *testing.T) {
	cfg := testConfig()
	issuer, err := NewTokenIssuer(cfg)
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err := issuer.Issue("1", "a@b.c", RoleAdmin)
	require.NoError(t, err)
	issuer.now = time.Now

	_, err = issuer.Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	other := testConfig()
	other.Session.Secret = strings.Repeat("z", 32)
	foreign, err := NewTokenIssuer(other)
	require.NoError(t, err)
	raw, _, err = foreign.Issue("1", "a@b.c", RoleAdmin)
	require.NoError(t, err)

	_, err = issuer.Parse(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestProductionRequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "production"
	cfg.Session.Secret = "short"
	_, err := NewTokenIssuer(cfg)
	require.Error(t, err)
}

func newTestRouter(t *testing.T) (*gin.Engine, *Manager, *MemoryRevocationStore) {
	t.Helper()
	cfg := testConfig()
	issuer, err := NewTokenIssuer(cfg)
	require.NoError(t, err)
	store := NewMemoryRevocationStore()
	mgr := NewManager(cfg, issuer, store)

	r := gin.New()
	r.Use(middleware.Error(), mgr.Authenticate())
	r.GET("/whoami", func(c *gin.Context) {
		p := Current(c)
		if p == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		require.Equal(t, p, FromContext(c.Request.Context()))
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID})
	})
	r.GET("/private", RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, mgr, store
}

func TestAuthenticateReadsBearerAndCookie(t *testing.T) {
	r, mgr, _ := newTestRouter(t)
	raw, _, err := mgr.Tokens().Issue("7", "x@y.z", RoleMember)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Contains(t, w.Body.String(), `"user_id":"7"`)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: raw})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Contains(t, w.Body.String(), `"user_id":"7"`)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Contains(t, w.Body.String(), `"anonymous":true`)
}

func TestRequireSessionAndRevocation(t *testing.T) {
	r, mgr, store := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	raw, p, err := mgr.Tokens().Issue("7", "x@y.z", RoleMember)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	require.NoError(t, store.Revoke(context.Background(), p.TokenID, time.Hour))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Duration) error {
	return errors.New("redis: connection refused")
}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestAuthenticateStaysAnonymousWhenRevocationLookupFails(t *testing.T) {
	cfg := testConfig()
	issuer, err := NewTokenIssuer(cfg)
	require.NoError(t, err)
	mgr := NewManager(cfg, issuer, failingRevocations{})

	r := gin.New()
	r.Use(middleware.Error(), mgr.Authenticate())
	r.GET("/private", RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	raw, _, err := issuer.Issue("7", "x@y.z", RoleMember)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
