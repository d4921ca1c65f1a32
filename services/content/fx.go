package content

import "go.uber.org/fx"

var Module = fx.Module("content.module",
	fx.Provide(
		NewService,
		NewHandler,
	),
)

// Worker runs the expiry sweep in cmd/worker.
var Worker = fx.Module("content.worker",
	fx.Provide(
		NewService,
		NewSweepHandler,
		NewScheduler,
	),
	fx.Invoke(RegisterTasks, StartScheduler),
)
