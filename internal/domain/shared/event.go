package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something that happened inside one organization
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// BaseDomainEvent is embedded by concrete events
type BaseDomainEvent struct {
	ID             uuid.UUID `json:"id"`
	Type           string    `json:"type"`
	At             time.Time `json:"occurred_at"`
	Aggregate      uuid.UUID `json:"aggregate_id"`
	AggregateKind  string    `json:"aggregate_type"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// NewBaseDomainEvent stamps a new event for the aggregate of the given kind
func NewBaseDomainEvent(eventType, aggregateKind string, aggregateID, organizationID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:             uuid.New(),
		Type:           eventType,
		At:             time.Now(),
		Aggregate:      aggregateID,
		AggregateKind:  aggregateKind,
		OrganizationID: organizationID,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate }
func (e *BaseDomainEvent) AggregateType() string  { return e.AggregateKind }

// TenantID returns the organization the event belongs to
func (e *BaseDomainEvent) TenantID() uuid.UUID { return e.OrganizationID }
