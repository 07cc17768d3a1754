package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HealthPath is the liveness route of the metadata service.
const HealthPath = "/health"

// HealthChecker asks the metadata service whether it is up before a run.
// When the request cannot be sent, the endpoint host is DNS-classified so
// the operator can tell "not running" from "wrong host".
type HealthChecker struct {
	Client *http.Client
	DNS    func(host string) DNSStatus
}

var _ Checker = (*HealthChecker)(nil)

func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{
		Client: &http.Client{Timeout: timeout},
		DNS:    CheckDNS,
	}
}

// Check sends GET {endpoint}/health. Any 2xx counts as healthy.
func (h *HealthChecker) Check(ctx context.Context, endpoint string) CheckResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(endpoint, "/")+HealthPath, nil)
	if err != nil {
		return CheckResult{Name: "HEALTH", Success: false, Message: err.Error()}
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		msg := err.Error()
		if h.DNS != nil {
			msg = fmt.Sprintf("%s dns=%s", msg, h.DNS(extractHost(endpoint)).Class)
		}
		return CheckResult{Name: "HEALTH", Success: false, Message: msg, LatencyMS: latency}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return CheckResult{
		Name:       "HEALTH",
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Message:    resp.Status,
		LatencyMS:  latency,
	}
}
