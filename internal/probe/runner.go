package probe

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/metaprobe/internal/domain"
)

// Reporter receives human-facing progress from a Runner.
type Reporter interface {
	Banner(endpoint string, targets int)
	Attempt(url string)
	Outcome(o domain.Outcome)
	Summary(s domain.Summary)
}

type nopReporter struct{}

func (nopReporter) Banner(string, int)     {}
func (nopReporter) Attempt(string)         {}
func (nopReporter) Outcome(domain.Outcome) {}
func (nopReporter) Summary(domain.Summary) {}

// NopReporter discards all progress.
var NopReporter Reporter = nopReporter{}

type RunnerConfig struct {
	Endpoint string
	// Delay is waited between consecutive probes.
	Delay time.Duration
	// TrailingDelay also waits after the last probe.
	TrailingDelay bool
}

// Runner probes targets strictly one after another.
type Runner struct {
	Logger   *zap.Logger
	Prober   Prober
	Reporter Reporter
	cfg      RunnerConfig
}

func NewRunner(logger *zap.Logger, prober Prober, reporter Reporter, cfg RunnerConfig) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = NopReporter
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &Runner{Logger: logger, Prober: prober, Reporter: reporter, cfg: cfg}
}

func (r *Runner) Endpoint() string { return r.cfg.Endpoint }

// RunAll probes every target in order and returns the tally.
func (r *Runner) RunAll(ctx context.Context, targets []string) domain.Summary {
	s, _ := r.runAll(ctx, targets)
	return s
}

// Run is RunAll plus the full report.
func (r *Runner) Run(ctx context.Context, targets []string) domain.Run {
	run := domain.Run{
		ID:        uuid.NewString(),
		Endpoint:  r.cfg.Endpoint,
		StartedAt: time.Now().UTC(),
	}
	run.Summary, run.Outcomes = r.runAll(ctx, targets)
	run.FinishedAt = time.Now().UTC()

	r.Logger.Info("run_finished",
		zap.String("run_id", run.ID),
		zap.String("endpoint", run.Endpoint),
		zap.Int("passed", run.Summary.Passed),
		zap.Int("total", run.Summary.Total),
		zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run
}

func (r *Runner) runAll(ctx context.Context, targets []string) (domain.Summary, []domain.Outcome) {
	summary := domain.Summary{Total: len(targets)}
	outcomes := make([]domain.Outcome, 0, len(targets))

	r.Reporter.Banner(r.cfg.Endpoint, len(targets))

	for i, url := range targets {
		var out domain.Outcome
		if err := ctx.Err(); err != nil {
			// cancelled: the rest are recorded as not passed
			out = domain.NetworkFailure(url, err.Error())
			out.CheckedAt = time.Now().UTC()
		} else {
			r.Reporter.Attempt(url)
			out = r.Prober.Probe(ctx, url)
		}
		if out.URL == "" {
			out.URL = url
		}

		r.Reporter.Outcome(out)
		outcomes = append(outcomes, out)
		if out.Passed() {
			summary.Passed++
		}

		r.Logger.Info("probe_done",
			zap.String("url", url),
			zap.String("kind", string(out.Kind)),
			zap.Int("status", out.StatusCode),
			zap.Float64("latency_ms", out.LatencyMS),
			zap.String("detail", out.Detail()),
		)

		last := i == len(targets)-1
		if ctx.Err() == nil && (!last || r.cfg.TrailingDelay) {
			_ = sleepCtx(ctx, r.cfg.Delay)
		}
	}

	r.Reporter.Summary(summary)
	return summary, outcomes
}
