package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed external event IDs (webhook
// deliveries) so a retried delivery is acknowledged without side effects.
type IdempotencyStore interface {
	// MarkProcessed records eventID for ttl. It returns false when the id
	// was already recorded.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	Close() error
}
