package message

import "go.uber.org/fx"

var Module = fx.Module("message.module",
	fx.Provide(
		NewService,
		NewHandler,
	),
)
