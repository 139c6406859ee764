package blocks

import "go.uber.org/fx"

// Module provides block graph dependencies. TaskUpserter and ChangeNotifier
// are implemented by the indexing module.
var Module = fx.Module("blocks",
	fx.Provide(
		NewRepository,
		NewService,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
