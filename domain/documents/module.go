package documents

import "go.uber.org/fx"

// Module provides document management dependencies
var Module = fx.Module("documents",
	fx.Provide(
		NewRepository,
		NewService,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
