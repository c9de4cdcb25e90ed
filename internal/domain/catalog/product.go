package catalog

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/storehub/backend/internal/domain/shared"
)

// MaxProductImages caps how many images one product may reference
const MaxProductImages = 10

// Product is a sellable item. Stock is tracked as a whole-unit balance and
// only changes through stock movements or sales.
type Product struct {
	shared.TenantAggregateRoot
	CategoryID    *uuid.UUID                  `gorm:"type:uuid;index"`
	SKU           string                      `gorm:"column:sku;type:varchar(50);index"`
	Name          string                      `gorm:"type:varchar(200);not null"`
	Description   string                      `gorm:"type:text"`
	Price         decimal.Decimal             `gorm:"type:decimal(18,2);not null"`
	CostPrice     decimal.Decimal             `gorm:"type:decimal(18,2);not null"`
	Stock         int                         `gorm:"not null;default:0"`
	MinStock      int                         `gorm:"not null;default:0"`
	Images        datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Active        bool                        `gorm:"not null"`
	ShowInCatalog bool                        `gorm:"not null"`

	Category *Category `gorm:"foreignKey:CategoryID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates an active product visible in the storefront
func NewProduct(organizationID uuid.UUID, name string, price decimal.Decimal) (*Product, error) {
	if organizationID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Organization is required")
	}
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePrice("Price", price); err != nil {
		return nil, err
	}

	p := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(organizationID),
		Name:                name,
		Price:               price,
		CostPrice:           decimal.Zero,
		Images:              datatypes.JSONSlice[string]{},
		Active:              true,
		ShowInCatalog:       true,
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update changes descriptive fields
func (p *Product) Update(name, description, sku string) error {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return err
	}
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if err := validateSKU(sku); err != nil {
		return err
	}
	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.SKU = sku
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetPrices sets the selling and cost price
func (p *Product) SetPrices(price, costPrice decimal.Decimal) error {
	if err := validatePrice("Price", price); err != nil {
		return err
	}
	if err := validatePrice("Cost price", costPrice); err != nil {
		return err
	}
	p.Price = price
	p.CostPrice = costPrice
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetCategory assigns or clears the category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.Touch()
}

// SetMinStock sets the low-stock threshold
func (p *Product) SetMinStock(minStock int) error {
	if minStock < 0 {
		return shared.ErrInvalidInput.WithMessage("Minimum stock cannot be negative")
	}
	p.MinStock = minStock
	p.Touch()
	return nil
}

// SetInitialStock sets the opening balance of a product that has never moved
func (p *Product) SetInitialStock(stock int) error {
	if stock < 0 {
		return shared.ErrInvalidInput.WithMessage("Stock cannot be negative")
	}
	p.Stock = stock
	return nil
}

// ApplyStockDelta adds delta (negative for outbound) to the balance
func (p *Product) ApplyStockDelta(delta int) error {
	if p.Stock+delta < 0 {
		return shared.ErrInsufficientStock.WithMessage("Insufficient stock for %s: have %d, need %d", p.Name, p.Stock, -delta)
	}
	p.Stock += delta
	p.Touch()
	p.IncrementVersion()
	if delta < 0 && p.IsLowStock() {
		p.AddDomainEvent(NewProductStockLowEvent(p))
	}
	return nil
}

// SetStockBalance overwrites the balance (inventory adjustment)
func (p *Product) SetStockBalance(balance int) error {
	if balance < 0 {
		return shared.ErrInvalidInput.WithMessage("Stock cannot be negative")
	}
	p.Stock = balance
	p.Touch()
	p.IncrementVersion()
	return nil
}

// CurrentStock returns the stock balance
func (p *Product) CurrentStock() int {
	return p.Stock
}

// IsLowStock reports whether stock is at or under the threshold
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// InStock reports whether at least qty units are available
func (p *Product) InStock(qty int) bool {
	return p.Stock >= qty
}

// Activate makes the product sellable
func (p *Product) Activate() error {
	if p.Active {
		return shared.ErrInvalidState.WithMessage("Product is already active")
	}
	p.Active = true
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Deactivate hides the product from sales and the storefront
func (p *Product) Deactivate() error {
	if !p.Active {
		return shared.ErrInvalidState.WithMessage("Product is already inactive")
	}
	p.Active = false
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetShowInCatalog toggles storefront visibility
func (p *Product) SetShowInCatalog(show bool) {
	p.ShowInCatalog = show
	p.Touch()
}

// VisibleInCatalog reports whether the storefront may list the product
func (p *Product) VisibleInCatalog(showOutOfStock bool) bool {
	if !p.Active || !p.ShowInCatalog {
		return false
	}
	return showOutOfStock || p.Stock > 0
}

// AddImage appends an object key
func (p *Product) AddImage(key string) error {
	if key == "" {
		return shared.ErrInvalidInput.WithMessage("Image key cannot be empty")
	}
	if len(p.Images) >= MaxProductImages {
		return shared.ErrInvalidInput.WithMessage("A product can have at most %d images", MaxProductImages)
	}
	if slices.Contains(p.Images, key) {
		return nil
	}
	p.Images = append(p.Images, key)
	p.Touch()
	return nil
}

// RemoveImage drops an object key, returning false when it was not present
func (p *Product) RemoveImage(key string) bool {
	idx := slices.Index(p.Images, key)
	if idx < 0 {
		return false
	}
	p.Images = slices.Delete(p.Images, idx, idx+1)
	p.Touch()
	return true
}

func validateProductName(name string) error {
	if name == "" {
		return shared.ErrInvalidInput.WithMessage("Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.ErrInvalidInput.WithMessage("Product name cannot exceed 200 characters")
	}
	return nil
}

func validateSKU(sku string) error {
	if len(sku) > 50 {
		return shared.ErrInvalidInput.WithMessage("SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.ErrInvalidInput.WithMessage("SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validatePrice(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return shared.ErrInvalidInput.WithMessage("%s cannot be negative", field)
	}
	return nil
}
