package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"chamber122/internal/schema"
	"chamber122/pkg/config"
	"chamber122/pkg/db"
	"chamber122/pkg/featureflags"
	"chamber122/pkg/gen"
	"chamber122/pkg/hashistack/secretmanager"
	"chamber122/pkg/logger"
	"chamber122/pkg/otelcol"
	"chamber122/pkg/redis"
	"chamber122/pkg/task"
	"chamber122/services/business"
	"chamber122/services/content"
	"chamber122/services/notification"
	"chamber122/services/registration"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Provider(),
		logger.Module,
		otelcol.Module,
		db.Module,
		schema.Module,
		redis.Module,
		gen.Module,
		task.Client,
		task.Server,
		featureflags.Module,
		fx.Provide(
			fx.Annotate(registration.NewCounter, fx.As(new(content.RegistrationCounter))),
		),
		notification.Worker,
		business.Module,
		content.Worker,
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
