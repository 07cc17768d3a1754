package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/hamed0406/metaprobe/internal/domain"
)

// RetryProber retries network failures and 5xx replies. With Attempts <= 1
// it sends exactly one request.
type RetryProber struct {
	Inner    Prober
	Attempts int
	Backoff  time.Duration
}

func (r *RetryProber) Probe(ctx context.Context, url string) domain.Outcome {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last domain.Outcome
	for i := 0; i < attempts; i++ {
		last = r.Inner.Probe(ctx, url)
		if !retryable(last) || i == attempts-1 {
			break
		}
		if err := sleepCtx(ctx, r.Backoff); err != nil {
			break
		}
	}
	if attempts > 1 && last.Kind == domain.KindNetworkFailure {
		last.Message += " (after retries)"
	}
	return last
}

func retryable(o domain.Outcome) bool {
	switch o.Kind {
	case domain.KindNetworkFailure:
		return true
	case domain.KindTransportFailure:
		return o.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
