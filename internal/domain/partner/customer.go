package partner

import (
	"strings"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/shared"
)

// Address is stored inline on the customer row
type Address struct {
	Street     string `gorm:"type:varchar(200)" json:"street"`
	Number     string `gorm:"type:varchar(20)" json:"number"`
	Complement string `gorm:"type:varchar(100)" json:"complement"`
	District   string `gorm:"type:varchar(100)" json:"district"`
	City       string `gorm:"type:varchar(100)" json:"city"`
	State      string `gorm:"type:varchar(50)" json:"state"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code"`
}

// Customer is a buyer of an organization, created by staff or through storefront sign-up
type Customer struct {
	shared.TenantAggregateRoot
	Name     string  `gorm:"type:varchar(200);not null"`
	Email    string  `gorm:"type:varchar(200);index"`
	Phone    string  `gorm:"type:varchar(50)"`
	Document string  `gorm:"type:varchar(30);index"`
	Address  Address `gorm:"embedded;embeddedPrefix:address_"`
	Notes    string  `gorm:"type:text"`
	// AsaasCustomerID caches the customer id at the Asaas gateway
	AsaasCustomerID string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a customer
func NewCustomer(organizationID uuid.UUID, name, email, phone, document string) (*Customer, error) {
	if organizationID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Organization is required")
	}
	c := &Customer{TenantAggregateRoot: shared.NewTenantAggregateRoot(organizationID)}
	if err := c.apply(name, email, phone, document); err != nil {
		return nil, err
	}
	return c, nil
}

// Update changes the customer's contact fields
func (c *Customer) Update(name, email, phone, document string) error {
	if err := c.apply(name, email, phone, document); err != nil {
		return err
	}
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetAddress replaces the address
func (c *Customer) SetAddress(addr Address) {
	c.Address = addr
	c.Touch()
}

// SetNotes replaces internal notes
func (c *Customer) SetNotes(notes string) {
	c.Notes = strings.TrimSpace(notes)
	c.Touch()
}

// LinkAsaas stores the gateway customer id
func (c *Customer) LinkAsaas(id string) {
	c.AsaasCustomerID = id
	c.Touch()
}

func (c *Customer) apply(name, email, phone, document string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrInvalidInput.WithMessage("Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.ErrInvalidInput.WithMessage("Customer name cannot exceed 200 characters")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		if err := shared.ValidateEmail(email); err != nil {
			return err
		}
	}
	document = NormalizeDocument(document)
	if document != "" && len(document) != 11 && len(document) != 14 {
		return shared.ErrInvalidInput.WithMessage("Document must be a CPF (11 digits) or CNPJ (14 digits)")
	}
	c.Name = name
	c.Email = email
	c.Phone = strings.TrimSpace(phone)
	c.Document = document
	return nil
}

// NormalizeDocument keeps only the digits of a CPF/CNPJ
func NormalizeDocument(doc string) string {
	var b strings.Builder
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
