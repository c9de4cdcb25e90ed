package identity

import "github.com/storehub/backend/internal/domain/shared"

const (
	EventTypeOrganizationCreated = "OrganizationCreated"
	AggregateTypeOrganization    = "Organization"
)

// OrganizationCreatedEvent is raised when a new organization signs up
type OrganizationCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NewOrganizationCreatedEvent creates the event for org
func NewOrganizationCreatedEvent(org *Organization) *OrganizationCreatedEvent {
	return &OrganizationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrganizationCreated, AggregateTypeOrganization, org.ID, org.ID),
		Name:            org.Name,
		Slug:            org.Slug,
	}
}
