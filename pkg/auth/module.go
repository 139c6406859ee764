package auth

import "go.uber.org/fx"

// Module provides authentication middleware
var Module = fx.Module("auth",
	fx.Provide(NewMiddleware),
)
