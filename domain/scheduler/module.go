package scheduler

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/inkwell-app/inkwell/domain/indexing"
	"github.com/inkwell-app/inkwell/internal/config"
)

// Module provides the trigger scheduler
var Module = fx.Module("scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(
		RegisterTasks,
		RegisterSchedulerLifecycle,
	),
)

// TaskParams contains dependencies for creating scheduled tasks
type TaskParams struct {
	fx.In
	Scheduler *Scheduler
	Triggers  *indexing.Triggers
	Log       *slog.Logger
	Cfg       *config.Config
}

// RegisterTasks registers the three embedding task triggers. Each sweep is
// an idempotent bulk update, so the cadence only affects latency.
func RegisterTasks(p TaskParams) error {
	if !p.Cfg.Scheduler.Enabled {
		p.Log.Info("scheduler disabled, skipping task registration")
		return nil
	}

	interval := p.Cfg.Scheduler.Interval

	promote := NewPromoteTask(p.Triggers, p.Log)
	if err := p.Scheduler.AddIntervalTask("promote_quiescent", interval, promote.Run); err != nil {
		p.Log.Error("failed to register promotion task", slog.String("error", err.Error()))
	}

	retry := NewRetryTask(p.Triggers, p.Log)
	if err := p.Scheduler.AddIntervalTask("retry_failed", interval, retry.Run); err != nil {
		p.Log.Error("failed to register retry task", slog.String("error", err.Error()))
	}

	stuck := NewStuckRecoveryTask(p.Triggers, p.Log)
	if err := p.Scheduler.AddIntervalTask("fail_stuck", interval, stuck.Run); err != nil {
		p.Log.Error("failed to register stuck recovery task", slog.String("error", err.Error()))
	}

	p.Log.Info("registered scheduled tasks",
		slog.Any("tasks", p.Scheduler.ListTasks()))

	return nil
}

// RegisterSchedulerLifecycle registers the scheduler with fx lifecycle
func RegisterSchedulerLifecycle(lc fx.Lifecycle, scheduler *Scheduler, cfg *config.Config) {
	if !cfg.Scheduler.Enabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
}
