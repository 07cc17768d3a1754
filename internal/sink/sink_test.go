package sink

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/hamed0406/metaprobe/internal/domain"
	"github.com/hamed0406/metaprobe/internal/repo/memory"
)

func sampleRun() *domain.Run {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ok := domain.Success("https://a.test", "A")
	ok.Domain = "a.test"
	return &domain.Run{
		ID:         "run-1",
		Endpoint:   "http://localhost:5002/api",
		StartedAt:  at,
		FinishedAt: at.Add(3 * time.Second),
		Summary:    domain.Summary{Passed: 1, Total: 2},
		Outcomes:   []domain.Outcome{ok, domain.TransportFailure("https://b.test", 404)},
	}
}

func TestJSONFile_WritesReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "url_test_results.json")
	if err := (JSONFile{Path: path}).Publish(context.Background(), sampleRun()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var rep Report
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.TotalURLs != 2 || rep.Successful != 1 || rep.Failed != 1 {
		t.Fatalf("counts wrong: %+v", rep)
	}
	if !rep.Results[0].Success || rep.Results[0].Markdown != "[A](https://a.test)" {
		t.Fatalf("success row wrong: %+v", rep.Results[0])
	}
	if rep.Results[1].Success || rep.Results[1].Error != "HTTP 404" {
		t.Fatalf("failure row wrong: %+v", rep.Results[1])
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestStore_SavesRun(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	if err := (Store{Runs: store}).Publish(ctx, sampleRun()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	got, _ := store.Get(ctx, "run-1")
	if got == nil || got.Summary.Passed != 1 {
		t.Fatalf("run not saved: %+v", got)
	}
}

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	calls := 0
	failing := Func(func(context.Context, *domain.Run) error { calls++; return errors.New("kafka down") })
	counting := Func(func(context.Context, *domain.Run) error { calls++; return nil })

	err := Multi{failing, nil, counting, failing}.Publish(context.Background(), sampleRun())
	if calls != 3 {
		t.Fatalf("want 3 sink calls, got %d", calls)
	}
	if len(multierr.Errors(err)) != 2 {
		t.Fatalf("want 2 combined errors, got %v", err)
	}
}
