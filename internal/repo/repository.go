package repo

import (
	"context"

	"github.com/hamed0406/metaprobe/internal/domain"
)

// Ports; the memory and postgres adapters live in subpackages.
type RunStore interface {
	Save(ctx context.Context, r *domain.Run) error
	// List returns up to limit runs, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*domain.Run, error)
	// Get returns nil, nil when the run does not exist.
	Get(ctx context.Context, id string) (*domain.Run, error)
	// Latest returns nil, nil when nothing was saved yet.
	Latest(ctx context.Context) (*domain.Run, error)
}
