package server

import (
	"chamber122/pkg/config"
	"chamber122/pkg/health"
	"chamber122/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type EngineParams struct {
	fx.In
	Config *config.Config
	Logger *zap.Logger
	Health health.HealthService `optional:"true"`
}

// NewEngine builds the gin engine shared by every service's RegisterRoutes.
// Ops endpoints are mounted here; API routes are added by the services.
func NewEngine(p EngineParams) *gin.Engine {
	if p.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.Trace(),
		middleware.Logger(p.Logger),
		middleware.Recovery(p.Logger),
		middleware.Channel(p.Config.Session.Name),
		middleware.Error(),
	)

	if p.Health != nil {
		r.GET("/health/liveness", p.Health.Liveness)
		r.GET("/health/readiness", p.Health.Readiness)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
