package indexing

import (
	"context"
	"log/slog"

	"github.com/inkwell-app/inkwell/internal/config"
	"github.com/inkwell-app/inkwell/pkg/apperror"
	"github.com/inkwell-app/inkwell/pkg/logger"
)

// Trigger names accepted by RunTrigger.
const (
	TriggerPromote   = "promote"
	TriggerRetry     = "retry"
	TriggerFailStuck = "fail-stuck"
)

// Triggers exposes the three time-based bulk transitions of the task state
// machine. Each is idempotent: callers can invoke them on any cadence.
type Triggers struct {
	store *Store
	cfg   *config.Config
	log   *slog.Logger
}

// NewTriggers creates the trigger operations
func NewTriggers(store *Store, cfg *config.Config, log *slog.Logger) *Triggers {
	return &Triggers{
		store: store,
		cfg:   cfg,
		log:   log.With(logger.Scope("indexing.triggers")),
	}
}

// Promote flips debounced tasks quiet for the debounce window to ready.
func (t *Triggers) Promote(ctx context.Context) (int64, error) {
	n, err := t.store.PromoteQuiescent(ctx, t.cfg.Scheduler.DebounceWindow)
	t.observe(TriggerPromote, n, err)
	return n, err
}

// Retry flips failed tasks under the retry cap back to debounced after the
// cooldown.
func (t *Triggers) Retry(ctx context.Context) (int64, error) {
	n, err := t.store.RetryFailed(ctx, t.cfg.Scheduler.RetryCooldown, t.cfg.Scheduler.MaxRetries)
	t.observe(TriggerRetry, n, err)
	return n, err
}

// FailStuck marks ready tasks untouched beyond the stuck threshold failed.
func (t *Triggers) FailStuck(ctx context.Context) (int64, error) {
	n, err := t.store.FailStuck(ctx, t.cfg.Scheduler.StuckThreshold)
	t.observe(TriggerFailStuck, n, err)
	return n, err
}

// RunTrigger dispatches a trigger by name.
func (t *Triggers) RunTrigger(ctx context.Context, name string) (*TriggerResult, error) {
	var (
		n   int64
		err error
	)
	switch name {
	case TriggerPromote:
		n, err = t.Promote(ctx)
	case TriggerRetry:
		n, err = t.Retry(ctx)
	case TriggerFailStuck:
		n, err = t.FailStuck(ctx)
	default:
		return nil, apperror.ErrBadRequest.WithMessage("unknown trigger " + name)
	}
	if err != nil {
		return nil, err
	}
	return &TriggerResult{Trigger: name, Transitioned: n}, nil
}

func (t *Triggers) observe(name string, n int64, err error) {
	if err != nil {
		t.log.Error("trigger failed", logger.Error(err), slog.String("trigger", name))
		return
	}
	if n > 0 {
		t.log.Info("trigger transitioned tasks",
			slog.String("trigger", name),
			slog.Int64("count", n))
		TriggerTransitions.WithLabelValues(name).Add(float64(n))
	}
}
