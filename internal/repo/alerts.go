package repo

import (
	"context"
	"time"
)

// AlertRecord holds the last verdict seen for an endpoint and the last time
// a notification was sent for it (used for cooldown).
type AlertRecord struct {
	Endpoint   string
	LastPassed bool
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, endpoint string) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() the send time is cleared.
	Set(ctx context.Context, endpoint string, lastPassed bool, sentAt time.Time) error
}
