package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hamed0406/metaprobe/internal/repo"
)

type alertStore struct {
	pool *pgxpool.Pool
}

// Alerts exposes the alerts table as a repo.AlertStore.
func (s *Store) Alerts() repo.AlertStore { return &alertStore{pool: s.pool} }

func (a *alertStore) Get(ctx context.Context, endpoint string) (*repo.AlertRecord, error) {
	const q = `SELECT last_passed, last_sent_at FROM alerts WHERE endpoint=$1`
	r := repo.AlertRecord{Endpoint: endpoint}
	var lastSent *time.Time
	if err := a.pool.QueryRow(ctx, q, endpoint).Scan(&r.LastPassed, &lastSent); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	r.LastSentAt = lastSent
	return &r, nil
}

func (a *alertStore) Set(ctx context.Context, endpoint string, lastPassed bool, sentAt time.Time) error {
	const q = `
		INSERT INTO alerts (endpoint, last_passed, last_sent_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (endpoint)
		DO UPDATE SET last_passed=EXCLUDED.last_passed, last_sent_at=EXCLUDED.last_sent_at
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	if _, err := a.pool.Exec(ctx, q, endpoint, lastPassed, ts); err != nil {
		return fmt.Errorf("set alert: %w", err)
	}
	return nil
}
