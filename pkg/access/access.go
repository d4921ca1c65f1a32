// Package access gates route groups by caller tier with a casbin enforcer.
// Per-record rules live with the content lifecycle, not here.
package access

import (
	"chamber122/pkg/config"
	"chamber122/pkg/errutil"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("access", fx.Provide(NewEnforcer))

const defaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

const defaultPolicy = `
p, pendingOwner, /api/dashboard/*, GET
p, approvedOwner, /api/dashboard/*, GET
p, admin, /api/admin/*, (GET)|(POST)|(PUT)|(DELETE)
g, admin, approvedOwner
`

// SubjectFunc names the caller for policy checks, e.g. its tier.
type SubjectFunc func(c *gin.Context) string

// NewEnforcer loads ACCESS_CONTROL.MODEL and POLICY files when set and the
// built-in route policy otherwise.
func NewEnforcer(cfg *config.Config) (*casbin.Enforcer, error) {
	if cfg.AccessControl.Model != "" && cfg.AccessControl.Policy != "" {
		return casbin.NewEnforcer(cfg.AccessControl.Model, cfg.AccessControl.Policy)
	}
	return NewDefaultEnforcer()
}

func NewDefaultEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, err
	}
	return casbin.NewEnforcer(m, stringadapter.NewAdapter(defaultPolicy))
}

// Require allows the request when the enforcer grants subject(c) the
// request path and method.
func Require(e *casbin.Enforcer, subject SubjectFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := subject(c)
		ok, err := e.Enforce(sub, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			zap.L().Error("access check failed", zap.String("subject", sub), zap.Error(err))
			c.Error(errutil.Internal("access check failed", err))
			c.Abort()
			return
		}
		if !ok {
			c.Error(errutil.Forbidden("permission denied", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
