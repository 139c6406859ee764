package jobs

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWorkerConfig(t *testing.T) {
	config := DefaultWorkerConfig("test-worker")

	assert.Equal(t, "test-worker", config.Name)
	assert.Equal(t, 5*time.Second, config.PollInterval)
	assert.Equal(t, 10, config.BatchSize)
}

func TestNewWorker_AppliesDefaults(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	w := NewWorker(WorkerConfig{Name: "bare"}, log, func(ctx context.Context) error { return nil })

	assert.Equal(t, 5*time.Second, w.config.PollInterval)
	assert.Equal(t, 10, w.config.BatchSize)
}

func TestWorkerConfig_CustomValues(t *testing.T) {
	config := WorkerConfig{
		Name:         "custom-worker",
		PollInterval: 10 * time.Second,
		BatchSize:    20,
	}

	assert.Equal(t, "custom-worker", config.Name)
	assert.Equal(t, 10*time.Second, config.PollInterval)
	assert.Equal(t, 20, config.BatchSize)
}

func TestWorkerMetricsStruct(t *testing.T) {
	t.Run("zero values", func(t *testing.T) {
		metrics := WorkerMetrics{}

		assert.Zero(t, metrics.Processed)
		assert.Zero(t, metrics.Succeeded)
		assert.Zero(t, metrics.Failed)
	})

	t.Run("custom values", func(t *testing.T) {
		metrics := WorkerMetrics{
			Processed: 100,
			Succeeded: 90,
			Failed:    10,
		}

		assert.Equal(t, int64(100), metrics.Processed)
		assert.Equal(t, int64(90), metrics.Succeeded)
		assert.Equal(t, int64(10), metrics.Failed)
	})
}

func TestWorker_IncrementProcessed(t *testing.T) {
	w := &Worker{}

	metrics := w.Metrics()
	assert.Zero(t, metrics.Processed)

	w.IncrementProcessed()
	w.IncrementProcessed()
	w.IncrementProcessed()
	metrics = w.Metrics()
	assert.Equal(t, int64(3), metrics.Processed)
	assert.Zero(t, metrics.Succeeded)
	assert.Zero(t, metrics.Failed)
}

func TestWorker_IncrementSuccess(t *testing.T) {
	w := &Worker{}

	// Success increments both processed and succeeded
	w.IncrementSuccess()
	w.IncrementSuccess()
	metrics := w.Metrics()
	assert.Equal(t, int64(2), metrics.Processed)
	assert.Equal(t, int64(2), metrics.Succeeded)
	assert.Zero(t, metrics.Failed)
}

func TestWorker_IncrementFailure(t *testing.T) {
	w := &Worker{}

	w.IncrementFailure()
	metrics := w.Metrics()
	assert.Equal(t, int64(1), metrics.Processed)
	assert.Zero(t, metrics.Succeeded)
	assert.Equal(t, int64(1), metrics.Failed)
}

func TestWorker_MixedIncrements(t *testing.T) {
	w := &Worker{}

	w.IncrementSuccess()
	w.IncrementSuccess()
	w.IncrementFailure()
	w.IncrementProcessed() // processed but neither success nor failure

	metrics := w.Metrics()
	assert.Equal(t, int64(4), metrics.Processed)
	assert.Equal(t, int64(2), metrics.Succeeded)
	assert.Equal(t, int64(1), metrics.Failed)
}

func TestWorker_IsRunning(t *testing.T) {
	t.Run("initial state is not running", func(t *testing.T) {
		w := &Worker{}
		assert.False(t, w.IsRunning())
	})

	t.Run("running after setting flag", func(t *testing.T) {
		w := &Worker{running: true}
		assert.True(t, w.IsRunning())
	})
}

func TestWorker_StartStop(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	var calls atomic.Int64
	w := NewWorker(WorkerConfig{Name: "start-stop", PollInterval: 10 * time.Millisecond}, log,
		func(ctx context.Context) error {
			calls.Add(1)
			return nil
		})

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsRunning())

	require.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	assert.False(t, w.IsRunning())
}

func TestWorker_Poke(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	var calls atomic.Int64
	// Poll interval far beyond the test horizon; only a poke can trigger a batch.
	w := NewWorker(WorkerConfig{Name: "poke", PollInterval: time.Hour}, log,
		func(ctx context.Context) error {
			calls.Add(1)
			return nil
		})

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		_ = w.Stop(stopCtx)
	}()

	w.Poke()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestWorker_Metrics_Concurrent(t *testing.T) {
	w := &Worker{}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				w.IncrementSuccess()
				w.IncrementFailure()
				_ = w.Metrics() // read while writing
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	metrics := w.Metrics()
	assert.Equal(t, int64(2000), metrics.Processed)
	assert.Equal(t, int64(1000), metrics.Succeeded)
	assert.Equal(t, int64(1000), metrics.Failed)
}
