package probe

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/metaprobe/internal/domain"
)

// fake prober you can control
type fakeProber struct {
	results []domain.Outcome
	i       int
}

func (f *fakeProber) Probe(ctx context.Context, url string) domain.Outcome {
	if f.i >= len(f.results) {
		return domain.NetworkFailure(url, "no more")
	}
	r := f.results[f.i]
	f.i++
	return r
}

func TestRetryProber_SucceedsAfterRetry(t *testing.T) {
	f := &fakeProber{
		results: []domain.Outcome{
			domain.NetworkFailure("u", "refused"),
			domain.Success("u", "ok"),
		},
	}
	rp := &RetryProber{Inner: f, Attempts: 3, Backoff: 10 * time.Millisecond}
	out := rp.Probe(context.Background(), "u")
	if !out.Passed() {
		t.Fatalf("expected success after retry, got %+v", out)
	}
	if f.i != 2 {
		t.Fatalf("want 2 attempts, got %d", f.i)
	}
}

func TestRetryProber_SingleAttemptByDefault(t *testing.T) {
	f := &fakeProber{
		results: []domain.Outcome{
			domain.NetworkFailure("u", "refused"),
			domain.Success("u", "ok"),
		},
	}
	rp := &RetryProber{Inner: f}
	out := rp.Probe(context.Background(), "u")
	if out.Passed() || f.i != 1 {
		t.Fatalf("want one failed attempt, got %+v after %d calls", out, f.i)
	}
	if strings.Contains(out.Message, "retries") {
		t.Fatalf("single attempt must not be annotated: %q", out.Message)
	}
}

func TestRetryProber_DoesNotRetryLogicalOr4xx(t *testing.T) {
	for _, first := range []domain.Outcome{
		domain.ApplicationFailure("u", "E"),
		domain.TransportFailure("u", 404),
	} {
		f := &fakeProber{results: []domain.Outcome{first, domain.Success("u", "ok")}}
		rp := &RetryProber{Inner: f, Attempts: 3}
		out := rp.Probe(context.Background(), "u")
		if out.Kind != first.Kind || f.i != 1 {
			t.Fatalf("want no retry for %s, got %+v after %d calls", first.Kind, out, f.i)
		}
	}
}

func TestRetryProber_AllFailAnnotates(t *testing.T) {
	f := &fakeProber{
		results: []domain.Outcome{
			domain.NetworkFailure("u", "fail1"),
			domain.NetworkFailure("u", "fail2"),
		},
	}
	rp := &RetryProber{Inner: f, Attempts: 2}
	out := rp.Probe(context.Background(), "u")
	if out.Passed() {
		t.Fatalf("expected failure, got success")
	}
	if out.Message != "fail2 (after retries)" {
		t.Fatalf("expected annotated message, got %q", out.Message)
	}
}

func TestRetryProber_5xxRetried(t *testing.T) {
	f := &fakeProber{
		results: []domain.Outcome{
			domain.TransportFailure("u", 503),
			domain.TransportFailure("u", 502),
		},
	}
	rp := &RetryProber{Inner: f, Attempts: 2}
	out := rp.Probe(context.Background(), "u")
	if out.StatusCode != 502 || f.i != 2 {
		t.Fatalf("want second 5xx after 2 calls, got %+v after %d", out, f.i)
	}
}
