package identity

import (
	"context"

	"github.com/google/uuid"
)

// OrganizationRepository persists organizations
type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindBySlug(ctx context.Context, slug string) (*Organization, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	Save(ctx context.Context, org *Organization) error
}

// UserRepository persists staff users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *User) error
}

// MemberRepository persists memberships
type MemberRepository interface {
	Find(ctx context.Context, organizationID, userID uuid.UUID) (*Member, error)
	// FindByUser returns memberships ordered by creation, with Organization preloaded
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Member, error)
	// FindByOrganization returns memberships with User preloaded
	FindByOrganization(ctx context.Context, organizationID uuid.UUID) ([]Member, error)
	CountByRole(ctx context.Context, organizationID uuid.UUID, role Role) (int64, error)
	Save(ctx context.Context, member *Member) error
	Delete(ctx context.Context, organizationID, userID uuid.UUID) error
}
