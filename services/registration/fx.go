package registration

import (
	"chamber122/services/content"

	"go.uber.org/fx"
)

var Module = fx.Module("registration.module",
	fx.Provide(
		NewService,
		NewHandler,
		fx.Annotate(NewCounter, fx.As(new(content.RegistrationCounter))),
	),
)
