package indexing

import (
	"context"

	"go.uber.org/fx"

	"github.com/inkwell-app/inkwell/domain/blocks"
)

// Module provides the embedding task coordinator and worker. The store and
// worker double as the transaction engine's TaskUpserter and ChangeNotifier.
var Module = fx.Module("indexing",
	fx.Provide(
		NewStore,
		NewTriggers,
		NewWorker,
		NewHandler,
		func(s *Store) blocks.TaskUpserter { return s },
		func(w *Worker) blocks.ChangeNotifier { return w },
	),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(registerWorkerLifecycle),
)

func registerWorkerLifecycle(lc fx.Lifecycle, w *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return w.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return w.Stop(ctx)
		},
	})
}
