package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"chamber122/internal/httpapi"
	"chamber122/internal/schema"
	"chamber122/pkg/access"
	"chamber122/pkg/config"
	"chamber122/pkg/db"
	"chamber122/pkg/featureflags"
	"chamber122/pkg/gen"
	"chamber122/pkg/hashistack/secretmanager"
	"chamber122/pkg/hashistack/servicediscover"
	"chamber122/pkg/health"
	"chamber122/pkg/logger"
	"chamber122/pkg/minio"
	"chamber122/pkg/otelcol"
	"chamber122/pkg/profiling"
	"chamber122/pkg/redis"
	"chamber122/pkg/server"
	"chamber122/pkg/session"
	"chamber122/pkg/task"
	"chamber122/services/account"
	"chamber122/services/auth"
	"chamber122/services/business"
	"chamber122/services/content"
	"chamber122/services/identity"
	"chamber122/services/media"
	"chamber122/services/message"
	"chamber122/services/notification"
	"chamber122/services/registration"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Provider(),
		logger.Module,
		otelcol.Module,
		profiling.Module,
		db.Module,
		schema.Module,
		redis.Module,
		gen.Module,
		task.Client,
		minio.Client,
		featureflags.Module,
		access.Module,
		session.Module,
		health.Module,
		notification.Module,
		business.Module,
		identity.Module,
		content.Module,
		registration.Module,
		auth.Module,
		media.Module,
		message.Module,
		account.Module,
		httpapi.Module,
		server.ProvideHTTPServer,
		servicediscover.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
