package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hamed0406/metaprobe/internal/domain"
)

// Report is the on-disk shape of a run.
type Report struct {
	RunID      string         `json:"run_id"`
	Endpoint   string         `json:"endpoint"`
	Timestamp  time.Time      `json:"timestamp"`
	TotalURLs  int            `json:"total_urls"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Results    []ReportResult `json:"results"`
}

type ReportResult struct {
	Success     bool   `json:"success"`
	URL         string `json:"url"`
	Kind        string `json:"kind"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Markdown    string `json:"markdown,omitempty"`
	Error       string `json:"error,omitempty"`
}

func NewReport(r *domain.Run) Report {
	rep := Report{
		RunID:      r.ID,
		Endpoint:   r.Endpoint,
		Timestamp:  r.FinishedAt,
		TotalURLs:  r.Summary.Total,
		Successful: r.Summary.Passed,
		Failed:     r.Summary.Failed(),
		Results:    make([]ReportResult, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		res := ReportResult{Success: o.Passed(), URL: o.URL, Kind: string(o.Kind)}
		if o.Passed() {
			res.Title = o.Title
			res.Description = o.Description
			res.Domain = o.Domain
			res.Thumbnail = o.Thumbnail
			res.Markdown = o.Markdown()
		} else {
			res.Error = o.Detail()
		}
		rep.Results = append(rep.Results, res)
	}
	return rep
}

// JSONFile overwrites Path with the latest run report.
type JSONFile struct {
	Path string
}

func (f JSONFile) Publish(_ context.Context, r *domain.Run) error {
	data, err := json.MarshalIndent(NewReport(r), "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	// write then rename so readers never see a half-written file
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}
