package identity

import (
	"strings"

	"github.com/storehub/backend/internal/domain/shared"
)

// Organization is a tenant: a store owning its products, customers and storefront.
// Its slug doubles as the storefront subdomain.
type Organization struct {
	shared.BaseAggregateRoot
	Name     string `gorm:"type:varchar(200);not null"`
	Slug     string `gorm:"type:varchar(63);not null;uniqueIndex"`
	Email    string `gorm:"type:varchar(200)"`
	Phone    string `gorm:"type:varchar(50)"`
	Document string `gorm:"type:varchar(30)"`
	Active   bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Organization) TableName() string {
	return "organizations"
}

// NewOrganization creates an organization. An empty slug is derived from the name.
func NewOrganization(name, slug string) (*Organization, error) {
	name = strings.TrimSpace(name)
	if err := validateOrganizationName(name); err != nil {
		return nil, err
	}
	if slug == "" {
		slug = NormalizeSlug(name)
	} else {
		slug = strings.ToLower(strings.TrimSpace(slug))
	}
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}

	org := &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Active:            true,
	}
	org.AddDomainEvent(NewOrganizationCreatedEvent(org))
	return org, nil
}

// Update changes the organization's profile fields
func (o *Organization) Update(name, email, phone, document string) error {
	name = strings.TrimSpace(name)
	if err := validateOrganizationName(name); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if err := shared.ValidateEmail(email); err != nil {
			return err
		}
	}
	o.Name = name
	o.Email = email
	o.Phone = strings.TrimSpace(phone)
	o.Document = strings.TrimSpace(document)
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Deactivate disables the organization and its storefront
func (o *Organization) Deactivate() error {
	if !o.Active {
		return shared.ErrInvalidState.WithMessage("Organization is already inactive")
	}
	o.Active = false
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Activate re-enables the organization
func (o *Organization) Activate() error {
	if o.Active {
		return shared.ErrInvalidState.WithMessage("Organization is already active")
	}
	o.Active = true
	o.Touch()
	o.IncrementVersion()
	return nil
}

func validateOrganizationName(name string) error {
	if name == "" {
		return shared.ErrInvalidInput.WithMessage("Organization name cannot be empty")
	}
	if len(name) > 200 {
		return shared.ErrInvalidInput.WithMessage("Organization name cannot exceed 200 characters")
	}
	return nil
}
