package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chamber122/pkg/middleware"
	"chamber122/pkg/session"
	"chamber122/services/business"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

func TestResolveTier(t *testing.T) {
	member := &session.Principal{UserID: "u1", Role: session.RoleMember}
	admin := &session.Principal{UserID: "a1", Role: session.RoleAdmin}

	approved := &business.Business{ID: "b1", ApprovalStatus: business.ApprovalApproved}
	pending := &business.Business{ID: "b2", ApprovalStatus: business.ApprovalPending}
	rejected := &business.Business{ID: "b3", ApprovalStatus: business.ApprovalRejected}

	cases := []struct {
		name      string
		principal *session.Principal
		business  *business.Business
		want      Tier
	}{
		{"anonymous", nil, nil, TierGuest},
		{"anonymous with business ignored", nil, approved, TierGuest},
		{"member without business", member, nil, TierGuest},
		{"member pending business", member, pending, TierPendingOwner},
		{"member rejected business", member, rejected, TierPendingOwner},
		{"member approved business", member, approved, TierApprovedOwner},
		{"admin without business", admin, nil, TierAdmin},
		{"admin with pending business", admin, pending, TierAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveTier(tc.principal, tc.business))
		})
	}
}

type loaderFunc func(ctx context.Context, userID string) (*business.Business, error)

func (f loaderFunc) GetByOwner(ctx context.Context, userID string) (*business.Business, error) {
	return f(ctx, userID)
}

func TestResolverResolve(t *testing.T) {
	calls := 0
	r := NewResolverWith(loaderFunc(func(ctx context.Context, userID string) (*business.Business, error) {
		calls++
		if userID == "owner" {
			return &business.Business{ID: "biz", OwnerID: "owner", ApprovalStatus: business.ApprovalApproved}, nil
		}
		return nil, nil
	}))
	ctx := context.Background()

	id, err := r.Resolve(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, TierGuest, id.Tier)
	require.Zero(t, calls)

	id, err = r.Resolve(ctx, &session.Principal{UserID: "owner", Role: session.RoleMember})
	require.NoError(t, err)
	require.Equal(t, TierApprovedOwner, id.Tier)
	require.True(t, id.OwnsBusiness("biz"))
	require.False(t, id.OwnsBusiness(""))
	require.False(t, id.OwnsBusiness("other"))

	id, err = r.Resolve(ctx, &session.Principal{UserID: "drifter", Role: session.RoleMember})
	require.NoError(t, err)
	require.Equal(t, TierGuest, id.Tier)
	require.Equal(t, "drifter", id.UserID())
}

func TestMiddlewarePropagatesLoaderError(t *testing.T) {
	r := NewResolverWith(loaderFunc(func(ctx context.Context, userID string) (*business.Business, error) {
		return nil, errors.New("db down")
	}))

	engine := gin.New()
	engine.Use(middleware.Error())
	engine.Use(func(c *gin.Context) {
		session.SetCurrent(c, &session.Principal{UserID: "u"})
		c.Next()
	})
	engine.Use(Middleware(r))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCurrentDefaultsToGuest(t *testing.T) {
	engine := gin.New()
	var got *Identity
	engine.GET("/x", func(c *gin.Context) {
		got = Current(c)
		c.Status(http.StatusOK)
	})
	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NotNil(t, got)
	require.Equal(t, TierGuest, got.Tier)
	require.Empty(t, got.UserID())
}
