package cache

import (
	"context"
	"time"

	"github.com/storehub/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore keeps processed webhook events in process memory.
// Used when Redis is disabled; a redelivery reaching another instance is still
// caught by the unique external id on sales.
type InMemoryIdempotencyStore struct {
	events *ttlMap[struct{}]
}

// NewInMemoryIdempotencyStore creates a store that sweeps expired events every minute
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{events: newTTLMap[struct{}](defaultCleanupInterval)}
}

// MarkProcessed implements shared.IdempotencyStore
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	return s.events.setIfAbsent(eventID, struct{}{}, ttl), nil
}

// IsProcessed implements shared.IdempotencyStore
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	_, ok := s.events.get(eventID)
	return ok, nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.events.close()
	return nil
}

// Size returns the number of stored events, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	return s.events.len()
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
