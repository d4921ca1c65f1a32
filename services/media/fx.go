package media

import "go.uber.org/fx"

var Module = fx.Module("media.module",
	fx.Provide(
		NewService,
		NewHandler,
	),
)
