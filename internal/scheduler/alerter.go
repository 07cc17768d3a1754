package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hamed0406/metaprobe/internal/domain"
	"github.com/hamed0406/metaprobe/internal/notify"
	"github.com/hamed0406/metaprobe/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the latest run and notifies when the verdict flips.
type Alerter struct {
	runs     repo.RunStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(runs repo.RunStore, alertDB repo.AlertStore, notifier notify.Notifier, cfg AlerterConfig) *Alerter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Alerter{
		runs:     runs,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	_ = a.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_ = a.scanOnce(ctx)
		}
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	run, err := a.runs.Latest(ctx)
	if err != nil || run == nil {
		return err
	}

	passed := run.Summary.AllPassed()
	rec, err := a.alertDB.Get(ctx, run.Endpoint)
	if err != nil {
		return fmt.Errorf("get alert state: %w", err)
	}

	stateChanged := rec == nil || rec.LastPassed != passed

	now := a.now()
	cooled := true
	if rec != nil && rec.LastSentAt != nil {
		cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
	}

	failAlert := stateChanged && !passed && cooled
	// a healthy first sighting is recorded but not announced
	recoveryAlert := stateChanged && passed && rec != nil && a.cfg.AlertOnRecovery

	if failAlert || recoveryAlert {
		title := "🔴 Metadata endpoint FAILING"
		if passed {
			title = "🟢 Metadata endpoint RECOVERED"
		}
		// Best-effort send and record the send time
		_ = a.notifier.Send(ctx, title, alertText(run))
		return a.alertDB.Set(ctx, run.Endpoint, passed, now)
	}

	if stateChanged {
		// keep the last send time so the cooldown survives a silent flip
		var sentAt time.Time
		if rec != nil && rec.LastSentAt != nil {
			sentAt = *rec.LastSentAt
		}
		return a.alertDB.Set(ctx, run.Endpoint, passed, sentAt)
	}
	return nil
}

func alertText(run *domain.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Endpoint: %s\nResults: %d/%d\n", run.Endpoint, run.Summary.Passed, run.Summary.Total)
	for _, o := range run.Outcomes {
		if !o.Passed() {
			fmt.Fprintf(&b, "- %s: %s\n", o.URL, o.Detail())
		}
	}
	fmt.Fprintf(&b, "Run: %s\nFinished: %s", run.ID, run.FinishedAt.Format(time.RFC3339))
	return b.String()
}
