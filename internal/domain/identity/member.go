package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

// Role is a member's role inside an organization
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// rank orders roles so that higher values carry more privileges
func (r Role) rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r grants at least the privileges of min
func (r Role) AtLeast(min Role) bool {
	return r.rank() >= min.rank()
}

// Member links a user to an organization with a role
type Member struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_member_org_user,priority:1"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_member_org_user,priority:2;index"`
	Role           Role      `gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time `gorm:"not null"`

	Organization *Organization `gorm:"foreignKey:OrganizationID"`
	User         *User         `gorm:"foreignKey:UserID"`
}

// TableName returns the table name for GORM
func (Member) TableName() string {
	return "members"
}

// NewMember creates a membership
func NewMember(organizationID, userID uuid.UUID, role Role) (*Member, error) {
	if organizationID == uuid.Nil || userID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Organization and user are required")
	}
	if !role.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("Invalid role %q", role)
	}
	return &Member{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      time.Now(),
	}, nil
}
