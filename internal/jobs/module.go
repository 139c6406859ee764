package jobs

import "go.uber.org/fx"

// Module provides background worker infrastructure.
//
// This is a library module with no direct providers: domain modules build
// their own Worker with a custom process function and register it with the
// fx lifecycle for start/stop.
var Module = fx.Module("jobs")
