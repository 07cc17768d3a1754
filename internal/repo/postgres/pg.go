package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/metaprobe/internal/domain"
	"github.com/hamed0406/metaprobe/internal/repo"
)

//go:embed schema.sql
var schemaSQL string

var _ repo.RunStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ---- RunStore ----

func (s *Store) Save(ctx context.Context, r *domain.Run) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, endpoint, started_at, finished_at, passed, total)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.Endpoint, r.StartedAt, r.FinishedAt, r.Summary.Passed, r.Summary.Total,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, o := range r.Outcomes {
		var statusPtr *int
		if o.StatusCode != 0 {
			v := o.StatusCode
			statusPtr = &v
		}
		batch.Queue(
			`INSERT INTO run_outcomes
			   (run_id, position, url, kind, title, description, domain, thumbnail,
			    error, status_code, message, latency_ms, checked_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			r.ID, i, o.URL, string(o.Kind), o.Title, o.Description, o.Domain, o.Thumbnail,
			o.Error, statusPtr, o.Message, o.LatencyMS, o.CheckedAt,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert outcomes: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("run_saved", zap.String("run_id", r.ID), zap.Int("outcomes", len(r.Outcomes)))
	return nil
}

func (s *Store) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	q := `SELECT id, endpoint, started_at, finished_at, passed, total
	        FROM runs
	       ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	runs, err := s.queryRuns(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if err := s.loadOutcomes(ctx, runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Run, error) {
	runs, err := s.queryRuns(ctx,
		`SELECT id, endpoint, started_at, finished_at, passed, total
		   FROM runs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	if err := s.loadOutcomes(ctx, runs); err != nil {
		return nil, err
	}
	return runs[0], nil
}

func (s *Store) Latest(ctx context.Context) (*domain.Run, error) {
	runs, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

func (s *Store) queryRuns(ctx context.Context, q string, args ...any) ([]*domain.Run, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		var r domain.Run
		if err := rows.Scan(&r.ID, &r.Endpoint, &r.StartedAt, &r.FinishedAt, &r.Summary.Passed, &r.Summary.Total); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *Store) loadOutcomes(ctx context.Context, runs []*domain.Run) error {
	if len(runs) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Run, len(runs))
	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT run_id, url, kind, title, description, domain, thumbnail,
		        error, status_code, message, latency_ms, checked_at
		   FROM run_outcomes
		  WHERE run_id = ANY($1)
		  ORDER BY run_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			runID  string
			kind   string
			status *int
			o      domain.Outcome
		)
		if err := rows.Scan(&runID, &o.URL, &kind, &o.Title, &o.Description, &o.Domain, &o.Thumbnail,
			&o.Error, &status, &o.Message, &o.LatencyMS, &o.CheckedAt); err != nil {
			return fmt.Errorf("scan outcome: %w", err)
		}
		o.Kind = domain.Kind(kind)
		if status != nil {
			o.StatusCode = *status
		}
		if r := byID[runID]; r != nil {
			r.Outcomes = append(r.Outcomes, o)
		}
	}
	return rows.Err()
}

// isNoRows keeps the pgx sentinel check in one place.
func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }
