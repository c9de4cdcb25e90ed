package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/shared"
)

// =============================================================================
// Category DTOs
// =============================================================================

// CreateCategoryRequest creates a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
	SortOrder   int    `json:"sort_order"`
}

// UpdateCategoryRequest replaces a category's fields
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
	SortOrder   int    `json:"sort_order"`
}

// CategoryResponse is the API view of a category
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a domain category
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		SortOrder:   c.SortOrder,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ListFilter is the common paging and search query
type ListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToShared converts the query into a normalized shared.Filter
func (f ListFilter) ToShared(defaultOrder string) shared.Filter {
	filter := shared.DefaultFilter()
	filter.Search = f.Search
	if defaultOrder != "" {
		filter.OrderBy = defaultOrder
	}
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

// =============================================================================
// Product DTOs
// =============================================================================

// CreateProductRequest creates a product
type CreateProductRequest struct {
	Name          string           `json:"name" binding:"required,min=1,max=200"`
	Description   string           `json:"description" binding:"max=5000"`
	SKU           string           `json:"sku" binding:"max=50"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	CostPrice     *decimal.Decimal `json:"cost_price"`
	Stock         int              `json:"stock" binding:"min=0"`
	MinStock      int              `json:"min_stock" binding:"min=0"`
	ShowInCatalog *bool            `json:"show_in_catalog"`
	CreatedBy     *uuid.UUID       `json:"-"`
}

// UpdateProductRequest replaces a product's editable fields. Stock is not
// editable here; it moves through stock movements and sales.
type UpdateProductRequest struct {
	Name          string           `json:"name" binding:"required,min=1,max=200"`
	Description   string           `json:"description" binding:"max=5000"`
	SKU           string           `json:"sku" binding:"max=50"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	CostPrice     *decimal.Decimal `json:"cost_price"`
	MinStock      int              `json:"min_stock" binding:"min=0"`
	ShowInCatalog *bool            `json:"show_in_catalog"`
}

func (r CreateProductRequest) fields() productFields {
	return productFields{
		Name:          r.Name,
		Description:   r.Description,
		SKU:           r.SKU,
		CategoryID:    r.CategoryID,
		CostPrice:     r.CostPrice,
		MinStock:      r.MinStock,
		ShowInCatalog: r.ShowInCatalog,
	}
}

func (r UpdateProductRequest) fields() productFields {
	return productFields{
		Name:          r.Name,
		Description:   r.Description,
		SKU:           r.SKU,
		CategoryID:    r.CategoryID,
		CostPrice:     r.CostPrice,
		MinStock:      r.MinStock,
		ShowInCatalog: r.ShowInCatalog,
	}
}

// ProductListFilter narrows product listings
type ProductListFilter struct {
	ListFilter
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Active     *bool  `form:"active"`
	LowStock   bool   `form:"low_stock"`
}

func (f ProductListFilter) toDomain() catalog.ProductFilter {
	filter := catalog.ProductFilter{
		Filter:       f.ToShared("created_at"),
		Active:       f.Active,
		LowStockOnly: f.LowStock,
	}
	if id, err := uuid.Parse(f.CategoryID); err == nil {
		filter.CategoryID = &id
	}
	return filter
}

// ImageUploadRequest asks for a presigned upload URL
type ImageUploadRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,oneof=image/jpeg image/png image/webp image/gif"`
}

// RemoveImageRequest removes one image key from a product
type RemoveImageRequest struct {
	Key string `json:"key" binding:"required"`
}

// ProductImage pairs an object key with its public URL
type ProductImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ProductResponse is the API view of a product
type ProductResponse struct {
	ID            uuid.UUID         `json:"id"`
	CategoryID    *uuid.UUID        `json:"category_id,omitempty"`
	Category      *CategoryResponse `json:"category,omitempty"`
	SKU           string            `json:"sku"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Price         decimal.Decimal   `json:"price"`
	CostPrice     decimal.Decimal   `json:"cost_price"`
	Stock         int               `json:"stock"`
	MinStock      int               `json:"min_stock"`
	LowStock      bool              `json:"low_stock"`
	Images        []ProductImage    `json:"images"`
	Active        bool              `json:"active"`
	ShowInCatalog bool              `json:"show_in_catalog"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ImageURLResolver turns an object key into a public URL
type ImageURLResolver interface {
	PublicURL(key string) string
}

// ToProductResponse converts a domain product, resolving image URLs through urls
func ToProductResponse(p *catalog.Product, urls ImageURLResolver) ProductResponse {
	resp := ProductResponse{
		ID:            p.ID,
		CategoryID:    p.CategoryID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		CostPrice:     p.CostPrice,
		Stock:         p.Stock,
		MinStock:      p.MinStock,
		LowStock:      p.IsLowStock(),
		Images:        ProductImages(p.Images, urls),
		Active:        p.Active,
		ShowInCatalog: p.ShowInCatalog,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Category != nil {
		c := ToCategoryResponse(p.Category)
		resp.Category = &c
	}
	return resp
}

// ProductImages resolves every key of a product
func ProductImages(keys []string, urls ImageURLResolver) []ProductImage {
	out := make([]ProductImage, 0, len(keys))
	for _, k := range keys {
		img := ProductImage{Key: k}
		if urls != nil {
			img.URL = urls.PublicURL(k)
		}
		out = append(out, img)
	}
	return out
}
