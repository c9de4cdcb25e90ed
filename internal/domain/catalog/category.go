package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

// Category groups products inside an organization
type Category struct {
	shared.TenantAggregateRoot
	Name        string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text"`
	SortOrder   int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category
func NewCategory(organizationID uuid.UUID, name, description string) (*Category, error) {
	if organizationID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Organization is required")
	}
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	return &Category{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(organizationID),
		Name:                name,
		Description:         strings.TrimSpace(description),
	}, nil
}

// Update changes the category's name, description and sort order
func (c *Category) Update(name, description string, sortOrder int) error {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return err
	}
	c.Name = name
	c.Description = strings.TrimSpace(description)
	c.SortOrder = sortOrder
	c.Touch()
	c.IncrementVersion()
	return nil
}

func validateCategoryName(name string) error {
	if name == "" {
		return shared.ErrInvalidInput.WithMessage("Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.ErrInvalidInput.WithMessage("Category name cannot exceed 100 characters")
	}
	return nil
}
