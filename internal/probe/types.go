package probe

import (
	"context"

	"github.com/hamed0406/metaprobe/internal/domain"
)

// CheckResult is the outcome of a plain reachability check (health, DNS).
//
// StatusCode is the HTTP status when available; 0 for transport/DNS errors.
type CheckResult struct {
	Name       string  `json:"name"`
	Success    bool    `json:"success"`
	StatusCode int     `json:"status_code,omitempty"`
	Message    string  `json:"message"`
	LatencyMS  float64 `json:"latency_ms,omitempty"`
}

// Checker performs a single check for a given target.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}

// Prober sends one URL to the metadata endpoint and classifies the reply.
type Prober interface {
	Probe(ctx context.Context, url string) domain.Outcome
}

// ProberFunc adapts a plain function to Prober.
type ProberFunc func(ctx context.Context, url string) domain.Outcome

func (f ProberFunc) Probe(ctx context.Context, url string) domain.Outcome { return f(ctx, url) }
