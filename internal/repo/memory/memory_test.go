package memory

import (
	"context"
	"testing"
	"time"

	"github.com/hamed0406/metaprobe/internal/domain"
	"github.com/hamed0406/metaprobe/internal/repo"
)

func run(id string, at time.Time, passed, total int) *domain.Run {
	return &domain.Run{
		ID:        id,
		Endpoint:  "http://localhost:5002/api",
		StartedAt: at,
		Summary:   domain.Summary{Passed: passed, Total: total},
		Outcomes:  []domain.Outcome{domain.Success("https://a.test", "A")},
	}
}

func TestMemoryStore_SaveListLatest(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if r, err := s.Latest(ctx); err != nil || r != nil {
		t.Fatalf("want nil latest on empty store, got %+v err=%v", r, err)
	}

	for i, id := range []string{"r1", "r2", "r3"} {
		if err := s.Save(ctx, run(id, base.Add(time.Duration(i)*time.Minute), 1, 1)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "r3" || all[2].ID != "r1" {
		t.Fatalf("want newest first, got %v", ids(all))
	}

	two, _ := s.List(ctx, 2)
	if len(two) != 2 {
		t.Fatalf("limit not applied: %v", ids(two))
	}

	latest, _ := s.Latest(ctx)
	if latest == nil || latest.ID != "r3" {
		t.Fatalf("want r3 latest, got %+v", latest)
	}
}

func TestMemoryStore_GetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Save(ctx, run("r1", time.Now().UTC(), 1, 1)); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil || got == nil {
		t.Fatalf("Get: %+v err=%v", got, err)
	}
	got.Outcomes[0].Title = "mutated"

	again, _ := s.Get(ctx, "r1")
	if again.Outcomes[0].Title != "A" {
		t.Fatalf("store leaked internal state: %q", again.Outcomes[0].Title)
	}

	missing, err := s.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("want nil, nil for missing run, got %+v err=%v", missing, err)
	}
}

func TestMemoryStore_Alerts(t *testing.T) {
	ctx := context.Background()
	var alerts repo.AlertStore = New().Alerts()

	rec, err := alerts.Get(ctx, "ep")
	if err != nil || rec != nil {
		t.Fatalf("expected nil, got %+v err=%v", rec, err)
	}

	if err := alerts.Set(ctx, "ep", false, time.Time{}); err != nil {
		t.Fatal(err)
	}
	rec, _ = alerts.Get(ctx, "ep")
	if rec == nil || rec.LastPassed || rec.LastSentAt != nil {
		t.Fatalf("unexpected: %+v", rec)
	}

	now := time.Now()
	_ = alerts.Set(ctx, "ep", true, now)
	rec, _ = alerts.Get(ctx, "ep")
	if rec == nil || !rec.LastPassed || rec.LastSentAt == nil || !rec.LastSentAt.Equal(now) {
		t.Fatalf("unexpected2: %+v", rec)
	}
}

func ids(rs []*domain.Run) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestMemoryStore_RetentionDropsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewWithRetention(2)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		if err := s.Save(ctx, run(id, base.Add(time.Duration(i)*time.Minute), 1, 1)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	all, _ := s.List(ctx, 0)
	if len(all) != 2 || all[0].ID != "r3" || all[1].ID != "r2" {
		t.Fatalf("want [r3 r2], got %d runs", len(all))
	}
	if r, _ := s.Get(ctx, "r1"); r != nil {
		t.Fatalf("oldest run should have been dropped")
	}
}
