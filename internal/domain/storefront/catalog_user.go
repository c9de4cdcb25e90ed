package storefront

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

// CatalogUser is a storefront login, separate from staff users and always
// bound to one customer row of the same organization.
type CatalogUser struct {
	shared.BaseEntity
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_catalog_user_org_email,priority:1"`
	CustomerID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name           string     `gorm:"type:varchar(200);not null"`
	Email          string     `gorm:"type:varchar(200);not null;uniqueIndex:idx_catalog_user_org_email,priority:2"`
	PasswordHash   string     `gorm:"type:varchar(255);not null"`
	LastLoginAt    *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (CatalogUser) TableName() string {
	return "catalog_users"
}

// NewCatalogUser creates a storefront account
func NewCatalogUser(organizationID, customerID uuid.UUID, name, email, password string) (*CatalogUser, error) {
	if organizationID == uuid.Nil || customerID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Organization and customer are required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrInvalidInput.WithMessage("Name cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := shared.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := shared.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := shared.HashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to hash password")
	}
	return &CatalogUser{
		BaseEntity:     shared.NewBaseEntity(),
		OrganizationID: organizationID,
		CustomerID:     customerID,
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
	}, nil
}

// VerifyPassword checks the password against the stored hash
func (u *CatalogUser) VerifyPassword(password string) bool {
	return shared.VerifyPassword(u.PasswordHash, password)
}

// RecordLogin stamps the last successful login
func (u *CatalogUser) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
}
