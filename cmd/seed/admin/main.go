package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"chamber122/internal/schema"
	"chamber122/pkg/config"
	"chamber122/pkg/db"
	"chamber122/pkg/gen"
	"chamber122/pkg/hashistack/secretmanager"
	"chamber122/pkg/logger"
	"chamber122/services/auth"
	"chamber122/services/business"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Provider(),
		logger.Module,
		db.Module,
		schema.Module,
		gen.Module,
		business.Module,
		auth.Module,
		fx.Invoke(seedAdmin),
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

// seedAdmin creates or promotes the ADMIN.EMAIL account, then stops the app.
func seedAdmin(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, svc *auth.Service, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			user, err := svc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name)
			if err != nil {
				log.Error("failed to seed admin", zap.Error(err))
				return err
			}
			log.Info("admin seeded", zap.String("user_id", user.ID), zap.String("email", user.Email))
			return shutdowner.Shutdown()
		},
	})
}
