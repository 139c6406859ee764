package scheduler

import (
	"context"
	"log/slog"

	"github.com/inkwell-app/inkwell/domain/indexing"
	"github.com/inkwell-app/inkwell/pkg/logger"
)

// PromoteTask promotes debounced embedding tasks that have been quiet for
// the debounce window to ready.
type PromoteTask struct {
	triggers *indexing.Triggers
	log      *slog.Logger
}

// NewPromoteTask creates the promotion task
func NewPromoteTask(triggers *indexing.Triggers, log *slog.Logger) *PromoteTask {
	return &PromoteTask{
		triggers: triggers,
		log:      log.With(logger.Scope("scheduler.promote")),
	}
}

// Run executes one promotion sweep
func (t *PromoteTask) Run(ctx context.Context) error {
	n, err := t.triggers.Promote(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		t.log.Info("promoted quiescent tasks", slog.Int64("count", n))
	}
	return nil
}

// RetryTask flips failed embedding tasks under the retry cap back to
// debounced after the cooldown.
type RetryTask struct {
	triggers *indexing.Triggers
	log      *slog.Logger
}

// NewRetryTask creates the retry task
func NewRetryTask(triggers *indexing.Triggers, log *slog.Logger) *RetryTask {
	return &RetryTask{
		triggers: triggers,
		log:      log.With(logger.Scope("scheduler.retry")),
	}
}

// Run executes one retry sweep
func (t *RetryTask) Run(ctx context.Context) error {
	n, err := t.triggers.Retry(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		t.log.Info("requeued failed tasks", slog.Int64("count", n))
	}
	return nil
}

// StuckRecoveryTask fails ready embedding tasks that have gone too long
// without an update, so the retry sweep can pick them up.
type StuckRecoveryTask struct {
	triggers *indexing.Triggers
	log      *slog.Logger
}

// NewStuckRecoveryTask creates the stuck-task recovery task
func NewStuckRecoveryTask(triggers *indexing.Triggers, log *slog.Logger) *StuckRecoveryTask {
	return &StuckRecoveryTask{
		triggers: triggers,
		log:      log.With(logger.Scope("scheduler.stuck")),
	}
}

// Run executes one stuck-task sweep
func (t *StuckRecoveryTask) Run(ctx context.Context) error {
	n, err := t.triggers.FailStuck(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		t.log.Warn("recovered stuck tasks", slog.Int64("count", n))
	}
	return nil
}
