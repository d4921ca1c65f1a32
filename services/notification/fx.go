package notification

import (
	"go.uber.org/fx"
)

// Module is what the HTTP binary needs: the publisher plus read access.
var Module = fx.Module("notification.module",
	fx.Provide(
		NewService,
		NewPublisher,
		NewHandler,
	),
)

// Worker handles notification tasks in cmd/worker.
var Worker = fx.Module("notification.worker",
	fx.Provide(
		NewService,
		NewPublisher,
		NewTaskHandler,
	),
	fx.Invoke(RegisterTasks),
)
