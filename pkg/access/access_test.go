package access

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"chamber122/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

func TestDefaultPolicy(t *testing.T) {
	e, err := NewDefaultEnforcer()
	require.NoError(t, err)

	cases := []struct {
		sub, obj, act string
		want          bool
	}{
		{"admin", "/api/admin/moderation", "GET", true},
		{"admin", "/api/admin/content/1/approve", "POST", true},
		{"admin", "/api/admin/businesses/1", "DELETE", true},
		{"approvedOwner", "/api/admin/businesses/1", "DELETE", false},
		{"admin", "/api/dashboard/content", "GET", true},
		{"approvedOwner", "/api/dashboard/content", "GET", true},
		{"pendingOwner", "/api/dashboard/content/9/registrations", "GET", true},
		{"approvedOwner", "/api/admin/moderation", "GET", false},
		{"guest", "/api/dashboard/content", "GET", false},
		{"guest", "/api/admin/moderation", "GET", false},
	}
	for _, tc := range cases {
		ok, err := e.Enforce(tc.sub, tc.obj, tc.act)
		require.NoError(t, err)
		require.Equal(t, tc.want, ok, "%s %s %s", tc.sub, tc.act, tc.obj)
	}
}

func TestRequireMiddleware(t *testing.T) {
	e, err := NewDefaultEnforcer()
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.Error())
	r.GET("/api/admin/moderation", Require(e, func(c *gin.Context) string {
		return c.GetHeader("X-Tier")
	}), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/admin/moderation", nil)
	req.Header.Set("X-Tier", "admin")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req.Header.Set("X-Tier", "approvedOwner")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}
