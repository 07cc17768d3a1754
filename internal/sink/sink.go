// Package sink delivers finished runs to wherever they are kept or announced.
package sink

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/hamed0406/metaprobe/internal/domain"
	"github.com/hamed0406/metaprobe/internal/repo"
)

type Sink interface {
	Publish(ctx context.Context, r *domain.Run) error
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, r *domain.Run) error

func (f Func) Publish(ctx context.Context, r *domain.Run) error { return f(ctx, r) }

// Multi publishes to every sink, even after a failure, and combines errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, r *domain.Run) error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Publish(ctx, r))
	}
	return err
}

// Store saves runs into a repo.RunStore.
type Store struct {
	Runs repo.RunStore
}

func (s Store) Publish(ctx context.Context, r *domain.Run) error {
	if err := s.Runs.Save(ctx, r); err != nil {
		return fmt.Errorf("save run %s: %w", r.ID, err)
	}
	return nil
}
