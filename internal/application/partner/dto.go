package partner

import (
	"time"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/shared"
)

// AddressInput is the postal address of a customer
type AddressInput struct {
	Street     string `json:"street" binding:"max=200"`
	Number     string `json:"number" binding:"max=20"`
	Complement string `json:"complement" binding:"max=100"`
	District   string `json:"district" binding:"max=100"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=50"`
	PostalCode string `json:"postal_code" binding:"max=20"`
}

func (a AddressInput) toDomain() partner.Address {
	return partner.Address(a)
}

// CreateCustomerRequest creates a customer
type CreateCustomerRequest struct {
	Name     string        `json:"name" binding:"required,min=1,max=200"`
	Email    string        `json:"email" binding:"omitempty,email,max=200"`
	Phone    string        `json:"phone" binding:"max=50"`
	Document string        `json:"document" binding:"max=30"`
	Address  *AddressInput `json:"address"`
	Notes    string        `json:"notes" binding:"max=2000"`
}

// UpdateCustomerRequest replaces the editable customer fields
type UpdateCustomerRequest struct {
	Name     string        `json:"name" binding:"required,min=1,max=200"`
	Email    string        `json:"email" binding:"omitempty,email,max=200"`
	Phone    string        `json:"phone" binding:"max=50"`
	Document string        `json:"document" binding:"max=30"`
	Address  *AddressInput `json:"address"`
	Notes    *string       `json:"notes" binding:"omitempty,max=2000"`
}

// CustomerListFilter narrows customer listings
type CustomerListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f CustomerListFilter) toShared() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Search = f.Search
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Normalize()
	return filter
}

// CustomerResponse is the API view of a customer
type CustomerResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Document       string          `json:"document"`
	Address        partner.Address `json:"address"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToCustomerResponse converts a domain customer
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Document:       c.Document,
		Address:        c.Address,
		Notes:          c.Notes,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
