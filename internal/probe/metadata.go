package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hamed0406/metaprobe/internal/domain"
)

// ExtractPath is appended to the endpoint base for every probe.
const ExtractPath = "/extract-url-metadata"

type extractRequest struct {
	URL                string `json:"url"`
	IncludeDescription bool   `json:"includeDescription"`
	IncludeOgData      bool   `json:"includeOgData"`
}

type extractResponse struct {
	Success     *bool  `json:"success"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Domain      string `json:"domain"`
	Thumbnail   string `json:"thumbnail"`
	Error       string `json:"error"`
}

// MetadataProber posts URLs to {Endpoint}/extract-url-metadata.
type MetadataProber struct {
	Endpoint string
	Client   *http.Client
}

// NewMetadataProber validates the endpoint base. A zero timeout leaves the
// transport default in place (no client-side limit).
func NewMetadataProber(endpoint string, timeout time.Duration) (*MetadataProber, error) {
	base, err := NormalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return &MetadataProber{
		Endpoint: base,
		Client:   &http.Client{Timeout: timeout},
	}, nil
}

func (p *MetadataProber) Probe(ctx context.Context, url string) domain.Outcome {
	start := time.Now()
	out := p.probe(ctx, url)
	out.LatencyMS = time.Since(start).Seconds() * 1000
	out.CheckedAt = time.Now().UTC()
	return out
}

func (p *MetadataProber) probe(ctx context.Context, url string) domain.Outcome {
	body, err := json.Marshal(extractRequest{URL: url, IncludeDescription: true, IncludeOgData: true})
	if err != nil {
		return domain.NetworkFailure(url, fmt.Sprintf("encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint+ExtractPath, bytes.NewReader(body))
	if err != nil {
		return domain.NetworkFailure(url, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return domain.NetworkFailure(url, err.Error())
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	defer func() { _, _ = io.Copy(io.Discard, resp.Body) }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.TransportFailure(url, resp.StatusCode)
	}

	var payload extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.ApplicationFailure(url, fmt.Sprintf("decode response: %v", err))
	}
	if payload.Success == nil {
		return domain.ApplicationFailure(url, "response missing success flag")
	}
	if !*payload.Success {
		msg := payload.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return domain.ApplicationFailure(url, msg)
	}

	out := domain.Success(url, payload.Title)
	out.Description = payload.Description
	out.Domain = payload.Domain
	out.Thumbnail = payload.Thumbnail
	return out
}
