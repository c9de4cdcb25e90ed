package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/trade"
)

// SaleItemInput is one requested line. UnitPrice defaults to the product price.
type SaleItemInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateSaleRequest records an admin (point of sale) sale
type CreateSaleRequest struct {
	CustomerID    *uuid.UUID          `json:"customer_id"`
	Items         []SaleItemInput     `json:"items" binding:"required,min=1,max=200,dive"`
	Discount      decimal.Decimal     `json:"discount"`
	PaymentMethod trade.PaymentMethod `json:"payment_method" binding:"omitempty,oneof=CASH CARD PIX BOLETO OTHER"`
	Notes         string              `json:"notes" binding:"max=2000"`
	// Pending records a sale awaiting payment, e.g. an open boleto
	Pending   bool       `json:"pending"`
	CreatedBy *uuid.UUID `json:"-"`
}

// ExternalSaleInput is a sale confirmed by a payment provider
type ExternalSaleInput struct {
	OrganizationID uuid.UUID
	CustomerID     *uuid.UUID
	Provider       trade.PaymentProvider
	ExternalID     string
	PaymentMethod  trade.PaymentMethod
	// Lines carry the prices the provider charged
	Lines []trade.SaleLine
	Notes string
}

// SaleListFilter narrows sale listings. Dates are inclusive calendar days.
type SaleListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=PENDING COMPLETED CANCELLED"`
	Source     string     `form:"source" binding:"omitempty,oneof=ADMIN CATALOG"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f SaleListFilter) toDomain() trade.SaleFilter {
	filter := trade.SaleFilter{
		Filter: shared.DefaultFilter(),
		Status: trade.SaleStatus(f.Status),
		Source: trade.SaleSource(f.Source),
		From:   f.From,
	}
	filter.OrderBy = "created_at"
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	filter.OrderDir = f.OrderDir
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.To != nil {
		end := f.To.AddDate(0, 0, 1)
		filter.To = &end
	}
	if id, err := uuid.Parse(f.CustomerID); err == nil {
		filter.CustomerID = &id
	}
	filter.Normalize()
	return filter
}

// SaleItemResponse is one line of a sale
type SaleItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// SaleResponse is the API view of a sale
type SaleResponse struct {
	ID              uuid.UUID             `json:"id"`
	Number          int64                 `json:"number"`
	CustomerID      *uuid.UUID            `json:"customer_id,omitempty"`
	CustomerName    string                `json:"customer_name,omitempty"`
	Status          trade.SaleStatus      `json:"status"`
	PaymentMethod   trade.PaymentMethod   `json:"payment_method"`
	Source          trade.SaleSource      `json:"source"`
	PaymentProvider trade.PaymentProvider `json:"payment_provider,omitempty"`
	ExternalID      string                `json:"external_id,omitempty"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Discount        decimal.Decimal       `json:"discount"`
	Total           decimal.Decimal       `json:"total"`
	Notes           string                `json:"notes,omitempty"`
	Items           []SaleItemResponse    `json:"items"`
	ItemCount       int                   `json:"item_count"`
	CreatedAt       time.Time             `json:"created_at"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
}

// ToSaleResponse converts a domain sale
func ToSaleResponse(s *trade.Sale) SaleResponse {
	resp := SaleResponse{
		ID:              s.ID,
		Number:          s.Number,
		CustomerID:      s.CustomerID,
		Status:          s.Status,
		PaymentMethod:   s.PaymentMethod,
		Source:          s.Source,
		PaymentProvider: s.PaymentProvider,
		ExternalID:      s.ExternalID,
		Subtotal:        s.Subtotal,
		Discount:        s.Discount,
		Total:           s.Total,
		Notes:           s.Notes,
		Items:           make([]SaleItemResponse, len(s.Items)),
		ItemCount:       s.ItemCount(),
		CreatedAt:       s.CreatedAt,
		CompletedAt:     s.CompletedAt,
		CancelledAt:     s.CancelledAt,
	}
	if s.Customer != nil {
		resp.CustomerName = s.Customer.Name
	}
	for i, it := range s.Items {
		resp.Items[i] = SaleItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		}
	}
	return resp
}

// Receipt formats
const (
	ReceiptHTML = "html"
	ReceiptPDF  = "pdf"
)

// Receipt is a rendered sale receipt
type Receipt struct {
	ContentType string
	Filename    string
	Body        []byte
}
