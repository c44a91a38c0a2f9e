package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yangwenmai/storeforge/internal/model"
	"github.com/yangwenmai/storeforge/internal/runlock"
)

// Generator runs one generation for a store and returns its final status.
type Generator interface {
	Run(ctx context.Context, storeID, sourceURL string) (string, error)
}

// Claimer hands out queued generation runs.
type Claimer interface {
	ClaimNextGeneration(ctx context.Context) (*model.Store, error)
	ResetStaleGeneration(ctx context.Context) (int64, error)
}

// Worker polls for queued stores and runs the generator on each.
type Worker struct {
	claimer   Claimer
	generator Generator
	lock      runlock.Locker
	interval  time.Duration
}

// New creates a new Worker. A nil lock means the store claim is the only guard.
func New(claimer Claimer, generator Generator, lock runlock.Locker, interval time.Duration) *Worker {
	if lock == nil {
		lock = runlock.Noop{}
	}
	return &Worker{claimer: claimer, generator: generator, lock: lock, interval: interval}
}

// Recover re-queues runs whose worker died mid-generation.
func (w *Worker) Recover(ctx context.Context) error {
	n, err := w.claimer.ResetStaleGeneration(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("re-queued stale generations", "count", n)
	}
	return nil
}

// Start begins the polling loop. It blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("worker started", "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped")
			return
		default:
		}

		if !w.RunOnce(ctx) {
			w.sleep(ctx)
		}
	}
}

// RunOnce claims and processes at most one store. It reports whether a store
// was claimed.
func (w *Worker) RunOnce(ctx context.Context) bool {
	st, err := w.claimer.ClaimNextGeneration(ctx)
	if err != nil {
		slog.Error("worker claim error", "error", err)
		return false
	}
	if st == nil {
		return false
	}

	release, err := w.lock.Acquire(ctx, st.ID)
	if errors.Is(err, runlock.ErrHeld) {
		slog.Warn("store is being generated elsewhere, skipping", "store_id", st.ID)
		return true
	}
	if err != nil {
		// Lock backend down: the store claim still guards this process.
		slog.Warn("run lock unavailable", "store_id", st.ID, "error", err)
		release = func(context.Context) error { return nil }
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("run lock release failed", "store_id", st.ID, "error", err)
		}
	}()

	slog.Info("generating store", "store_id", st.ID, "source_url", st.SourceURL)
	start := time.Now()
	status, err := w.generator.Run(ctx, st.ID, st.SourceURL)
	if err != nil {
		step := "unknown"
		var sn stepNamer
		if errors.As(err, &sn) {
			step = sn.StepName()
		}
		slog.Error("generation failed", "store_id", st.ID, "step", step, "error", err)
		return true
	}
	slog.Info("store generation finished", "store_id", st.ID, "status", status,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return true
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.interval):
	}
}

// stepNamer is implemented by errors that carry a pipeline step name.
type stepNamer interface {
	StepName() string
}
