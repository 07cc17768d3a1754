package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/metaprobe/internal/domain"
	"github.com/hamed0406/metaprobe/internal/repo"
)

// DefaultRetention is how many runs New keeps before dropping the oldest.
const DefaultRetention = 500

type Store struct {
	mu        sync.RWMutex
	runs      []*domain.Run
	alerts    map[string]repo.AlertRecord
	retention int
}

func New() *Store { return NewWithRetention(DefaultRetention) }

// NewWithRetention keeps at most n runs; n <= 0 keeps everything.
func NewWithRetention(n int) *Store {
	return &Store{
		runs:      make([]*domain.Run, 0, 64),
		alerts:    make(map[string]repo.AlertRecord),
		retention: n,
	}
}

// ---- RunStore ----

func (m *Store) Save(ctx context.Context, r *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	cp := copyRun(r)
	// newest first; ties go to the most recently saved
	m.runs = append([]*domain.Run{cp}, m.runs...)
	sort.SliceStable(m.runs, func(i, j int) bool {
		return m.runs[i].StartedAt.After(m.runs[j].StartedAt)
	})
	if m.retention > 0 && len(m.runs) > m.retention {
		clear(m.runs[m.retention:])
		m.runs = m.runs[:m.retention]
	}
	return nil
}

func (m *Store) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*domain.Run, 0, n)
	for _, r := range m.runs[:n] {
		out = append(out, copyRun(r))
	}
	return out, nil
}

func (m *Store) Get(ctx context.Context, id string) (*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.runs {
		if r.ID == id {
			return copyRun(r), nil
		}
	}
	return nil, nil
}

func (m *Store) Latest(ctx context.Context) (*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.runs) == 0 {
		return nil, nil
	}
	return copyRun(m.runs[0]), nil
}

// ---- AlertStore ----

func (m *Store) GetAlert(ctx context.Context, endpoint string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[endpoint]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) SetAlert(ctx context.Context, endpoint string, lastPassed bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	m.alerts[endpoint] = repo.AlertRecord{Endpoint: endpoint, LastPassed: lastPassed, LastSentAt: ts}
	return nil
}

// Alerts exposes the alert half of the store as a repo.AlertStore.
func (m *Store) Alerts() repo.AlertStore { return alertView{m} }

type alertView struct{ m *Store }

func (a alertView) Get(ctx context.Context, endpoint string) (*repo.AlertRecord, error) {
	return a.m.GetAlert(ctx, endpoint)
}

func (a alertView) Set(ctx context.Context, endpoint string, lastPassed bool, sentAt time.Time) error {
	return a.m.SetAlert(ctx, endpoint, lastPassed, sentAt)
}

func copyRun(r *domain.Run) *domain.Run {
	cp := *r
	cp.Outcomes = append([]domain.Outcome(nil), r.Outcomes...)
	return &cp
}

var _ repo.RunStore = (*Store)(nil)
