package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/metaprobe/internal/domain"
	"github.com/hamed0406/metaprobe/internal/sink"
)

// RunFunc performs one full pass over the targets.
type RunFunc func(ctx context.Context, targets []string) domain.Run

// Repeater runs the probe list and hands every run to a sink. Runs are
// single-flight: a scheduled pass and a manual trigger never overlap.
type Repeater struct {
	Logger   *zap.Logger
	Run      RunFunc
	Sink     sink.Sink
	Targets  []string
	Interval time.Duration

	mu sync.Mutex
}

func NewRepeater(logger *zap.Logger, run RunFunc, s sink.Sink, targets []string, interval time.Duration) *Repeater {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval < 0 {
		interval = 0
	}
	return &Repeater{
		Logger:   logger,
		Run:      run,
		Sink:     s,
		Targets:  append([]string(nil), targets...),
		Interval: interval,
	}
}

// Loop does an immediate pass, then one per tick until ctx is cancelled.
// A zero Interval disables the loop.
func (r *Repeater) Loop(ctx context.Context) {
	if r.Interval == 0 {
		r.Logger.Info("repeater_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("repeater_stopped")
			return
		case <-t.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce waits for any in-flight run, then runs.
func (r *Repeater) RunOnce(ctx context.Context) domain.Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runLocked(ctx)
}

// TryRunOnce runs only if nothing else is running.
func (r *Repeater) TryRunOnce(ctx context.Context) (domain.Run, bool) {
	if !r.mu.TryLock() {
		return domain.Run{}, false
	}
	defer r.mu.Unlock()
	return r.runLocked(ctx), true
}

func (r *Repeater) runLocked(ctx context.Context) domain.Run {
	run := r.Run(ctx, r.Targets)
	if r.Sink == nil {
		return run
	}
	if err := r.Sink.Publish(ctx, &run); err != nil {
		r.Logger.Warn("repeater_publish_error",
			zap.String("run_id", run.ID),
			zap.Error(err),
		)
	}
	return run
}
