package trade

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appshared "github.com/storehub/backend/internal/application/shared"
	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/inventory"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/trade"
	"github.com/storehub/backend/internal/infrastructure/printing"
)

// ReceiptRenderer renders receipt data as HTML or PDF
type ReceiptRenderer interface {
	RenderHTML(data printing.ReceiptData) ([]byte, error)
	RenderPDF(ctx context.Context, data printing.ReceiptData) ([]byte, error)
	PDFEnabled() bool
}

// SaleService records, lists and cancels sales. Every sale is numbered and
// moves stock inside one transaction.
type SaleService struct {
	txScope   appshared.TransactionScope
	sales     trade.SaleRepository
	customers partner.CustomerRepository
	orgs      identity.OrganizationRepository
	receipts  ReceiptRenderer
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewSaleService creates a new SaleService. receipts may be nil when
// receipt printing is not wired.
func NewSaleService(
	txScope appshared.TransactionScope,
	sales trade.SaleRepository,
	customers partner.CustomerRepository,
	orgs identity.OrganizationRepository,
	receipts ReceiptRenderer,
	events shared.EventPublisher,
	logger *zap.Logger,
) *SaleService {
	if events == nil {
		events = shared.NoopEventPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		txScope:   txScope,
		sales:     sales,
		customers: customers,
		orgs:      orgs,
		receipts:  receipts,
		events:    events,
		logger:    logger,
	}
}

// Create records an admin sale. Products are locked, the next number is
// allocated and stock leaves through OUT movements, all in one transaction.
func (s *SaleService) Create(ctx context.Context, organizationID uuid.UUID, req CreateSaleRequest) (*SaleResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("A sale needs at least one item")
	}
	if err := s.ensureCustomer(ctx, organizationID, req.CustomerID); err != nil {
		return nil, err
	}

	var sale *trade.Sale
	var pending []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos appshared.Repositories) error {
		ids := make([]uuid.UUID, len(req.Items))
		for i, it := range req.Items {
			ids[i] = it.ProductID
		}
		products, err := lockProducts(ctx, repos, organizationID, ids, false)
		if err != nil {
			return err
		}

		lines := make([]trade.SaleLine, len(req.Items))
		for i, it := range req.Items {
			p := products[it.ProductID]
			if !p.Active {
				return shared.ErrInvalidInput.WithMessage("Product %s is inactive", p.Name)
			}
			price := p.Price
			if it.UnitPrice != nil {
				price = *it.UnitPrice
			}
			lines[i] = trade.SaleLine{ProductID: p.ID, ProductName: p.Name, Quantity: it.Quantity, UnitPrice: price}
		}

		sale, err = trade.NewSale(organizationID, lines, trade.SaleOptions{
			CustomerID:    req.CustomerID,
			PaymentMethod: req.PaymentMethod,
			Source:        trade.SaleSourceAdmin,
			Discount:      req.Discount,
			Notes:         req.Notes,
			CreatedBy:     req.CreatedBy,
			Pending:       req.Pending,
		})
		if err != nil {
			return err
		}
		pending, err = s.persistSale(ctx, repos, sale, products, req.CreatedBy, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, sale, pending)
	s.logger.Info("Sale created",
		zap.String("organization_id", organizationID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.Int64("number", sale.Number),
		zap.String("status", string(sale.Status)),
		zap.String("total", sale.Total.String()))

	return s.Get(ctx, organizationID, sale.ID)
}

// Complete marks a pending sale as paid. Its stock already left when the
// sale was recorded.
func (s *SaleService) Complete(ctx context.Context, organizationID, id uuid.UUID) (*SaleResponse, error) {
	sale, err := s.sales.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if err := sale.Complete(); err != nil {
		return nil, err
	}
	if err := s.sales.UpdateStatus(ctx, sale); err != nil {
		return nil, err
	}

	s.logger.Info("Sale completed",
		zap.String("organization_id", organizationID.String()),
		zap.String("sale_id", id.String()),
		zap.Int64("number", sale.Number))
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// RecordExternalSale records a sale a payment provider confirmed. It is
// idempotent on (organization, provider, external id): a sale already
// recorded is returned with created=false. A paid sale is never refused for
// lack of stock; stock goes down to zero and the shortfall is logged. Lines
// whose product was deleted after checkout keep their snapshot and move no
// stock.
func (s *SaleService) RecordExternalSale(ctx context.Context, in ExternalSaleInput) (*trade.Sale, bool, error) {
	if existing, err := s.sales.FindByExternalID(ctx, in.OrganizationID, in.Provider, in.ExternalID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}
	if err := s.ensureCustomer(ctx, in.OrganizationID, in.CustomerID); err != nil {
		return nil, false, err
	}

	var sale *trade.Sale
	var pending []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos appshared.Repositories) error {
		ids := make([]uuid.UUID, len(in.Lines))
		for i, l := range in.Lines {
			ids[i] = l.ProductID
		}
		products, err := lockProducts(ctx, repos, in.OrganizationID, ids, true)
		if err != nil {
			return err
		}

		lines := slices.Clone(in.Lines)
		for i := range lines {
			p, ok := products[lines[i].ProductID]
			if !ok {
				s.logger.Error("Paid sale references a deleted product",
					zap.String("organization_id", in.OrganizationID.String()),
					zap.String("provider", string(in.Provider)),
					zap.String("external_id", in.ExternalID),
					zap.String("product_id", lines[i].ProductID.String()),
					zap.String("product_name", lines[i].ProductName),
					zap.Int("quantity", lines[i].Quantity))
				if lines[i].ProductName == "" {
					lines[i].ProductName = "Produto removido"
				}
				continue
			}
			if lines[i].ProductName == "" {
				lines[i].ProductName = p.Name
			}
		}
		sale, err = trade.NewSale(in.OrganizationID, lines, trade.SaleOptions{
			CustomerID:      in.CustomerID,
			PaymentMethod:   in.PaymentMethod,
			Source:          trade.SaleSourceCatalog,
			PaymentProvider: in.Provider,
			ExternalID:      in.ExternalID,
			Notes:           in.Notes,
		})
		if err != nil {
			return err
		}
		pending, err = s.persistSale(ctx, repos, sale, products, nil, true)
		return err
	})
	if errors.Is(err, shared.ErrAlreadyExists) {
		// a concurrent delivery won the unique (organization, provider, external id) index
		existing, findErr := s.sales.FindByExternalID(ctx, in.OrganizationID, in.Provider, in.ExternalID)
		if findErr != nil {
			return nil, false, fmt.Errorf("load concurrently recorded sale: %w", findErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.publish(ctx, sale, pending)
	s.logger.Info("External sale recorded",
		zap.String("organization_id", in.OrganizationID.String()),
		zap.String("provider", string(in.Provider)),
		zap.String("external_id", in.ExternalID),
		zap.Int64("number", sale.Number),
		zap.String("total", sale.Total.String()))
	return sale, true, nil
}

// Get returns one sale with items
func (s *SaleService) Get(ctx context.Context, organizationID, id uuid.UUID) (*SaleResponse, error) {
	sale, err := s.sales.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// List returns a page of sales
func (s *SaleService) List(ctx context.Context, organizationID uuid.UUID, f SaleListFilter) (*shared.Paginated[SaleResponse], error) {
	filter := f.toDomain()
	sales, total, err := s.sales.FindAllForTenant(ctx, organizationID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]SaleResponse, len(sales))
	for i := range sales {
		items[i] = ToSaleResponse(&sales[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Cancel voids a sale and returns to stock exactly what its OUT movements took
func (s *SaleService) Cancel(ctx context.Context, organizationID, id uuid.UUID, userID *uuid.UUID) (*SaleResponse, error) {
	var sale *trade.Sale
	var pending []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		sale, err = repos.Sales().FindByIDForTenant(ctx, organizationID, id)
		if err != nil {
			return err
		}
		if err := sale.Cancel(); err != nil {
			return err
		}
		if err := repos.Sales().UpdateStatus(ctx, sale); err != nil {
			return err
		}

		outs, err := saleOutMovements(ctx, repos, organizationID, sale.ID)
		if err != nil {
			return err
		}
		for _, out := range outs {
			product, err := repos.Products().FindByIDForUpdate(ctx, organizationID, out.ProductID)
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			movement, err := inventory.NewStockMovement(organizationID, product.ID, inventory.MovementTypeIn, out.Quantity, inventory.ReasonSaleCancelled)
			if err != nil {
				return err
			}
			movement.ForSale(sale.ID).By(userID)
			if err := movement.ApplyTo(product); err != nil {
				return err
			}
			if err := repos.StockMovements().Create(ctx, movement); err != nil {
				return err
			}
			if err := repos.Products().Save(ctx, product); err != nil {
				return err
			}
			pending = append(pending, product.GetDomainEvents()...)
			product.ClearDomainEvents()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, sale, pending)
	if sale.IsExternal() {
		s.logger.Warn("Cancelled sale was paid through a provider, refund it there",
			zap.String("sale_id", id.String()),
			zap.String("provider", string(sale.PaymentProvider)),
			zap.String("external_id", sale.ExternalID))
	}
	s.logger.Info("Sale cancelled",
		zap.String("organization_id", organizationID.String()),
		zap.String("sale_id", id.String()),
		zap.Int64("number", sale.Number))
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// Receipt renders a sale receipt as HTML or, when a PDF renderer is
// configured, as PDF.
func (s *SaleService) Receipt(ctx context.Context, organizationID, id uuid.UUID, format string) (*Receipt, error) {
	if s.receipts == nil {
		return nil, shared.ErrInvalidInput.WithMessage("Receipt printing is not configured")
	}
	if format == ReceiptPDF && !s.receipts.PDFEnabled() {
		return nil, shared.ErrInvalidInput.WithMessage("PDF receipts are not enabled")
	}
	sale, err := s.sales.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	data := printing.NewReceiptData(org, sale)

	if format == ReceiptPDF {
		body, err := s.receipts.RenderPDF(ctx, data)
		if err != nil {
			return nil, err
		}
		return &Receipt{ContentType: "application/pdf", Filename: fmt.Sprintf("venda-%d.pdf", sale.Number), Body: body}, nil
	}
	body, err := s.receipts.RenderHTML(data)
	if err != nil {
		return nil, err
	}
	return &Receipt{ContentType: "text/html; charset=utf-8", Filename: fmt.Sprintf("venda-%d.html", sale.Number), Body: body}, nil
}

func (s *SaleService) ensureCustomer(ctx context.Context, organizationID uuid.UUID, customerID *uuid.UUID) error {
	if customerID == nil {
		return nil
	}
	if _, err := s.customers.FindByIDForTenant(ctx, organizationID, *customerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrInvalidInput.WithMessage("Customer not found")
		}
		return err
	}
	return nil
}

// persistSale allocates the number, inserts the sale and moves stock out.
// With clamp set, a line larger than the balance takes only what is left.
func (s *SaleService) persistSale(
	ctx context.Context,
	repos appshared.Repositories,
	sale *trade.Sale,
	products map[uuid.UUID]*catalog.Product,
	userID *uuid.UUID,
	clamp bool,
) ([]shared.DomainEvent, error) {
	number, err := repos.SaleNumbers().Next(ctx, sale.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("allocate sale number: %w", err)
	}
	sale.AssignNumber(number)
	if err := repos.Sales().Create(ctx, sale); err != nil {
		return nil, err
	}

	var events []shared.DomainEvent
	for _, item := range sale.Items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		qty := item.Quantity
		if clamp && product.Stock < qty {
			s.logger.Warn("Sale exceeds available stock",
				zap.String("sale_id", sale.ID.String()),
				zap.String("product_id", product.ID.String()),
				zap.Int("requested", qty),
				zap.Int("available", product.Stock))
			qty = product.Stock
		}
		if qty == 0 {
			continue
		}
		movement, err := inventory.NewStockMovement(sale.OrganizationID, product.ID, inventory.MovementTypeOut, qty, inventory.ReasonSale)
		if err != nil {
			return nil, err
		}
		movement.ForSale(sale.ID).By(userID)
		if err := movement.ApplyTo(product); err != nil {
			return nil, err
		}
		if err := repos.StockMovements().Create(ctx, movement); err != nil {
			return nil, err
		}
		if err := repos.Products().Save(ctx, product); err != nil {
			return nil, err
		}
		events = append(events, product.GetDomainEvents()...)
		product.ClearDomainEvents()
	}
	return events, nil
}

func (s *SaleService) publish(ctx context.Context, sale *trade.Sale, extra []shared.DomainEvent) {
	events := append(slices.Clone(sale.GetDomainEvents()), extra...)
	sale.ClearDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish sale events", zap.String("sale_id", sale.ID.String()), zap.Error(err))
	}
}

// lockProducts loads and row-locks the distinct products in id order, so two
// sales touching the same products cannot deadlock. Unknown products are an
// input error, or left out of the result when skipMissing is set.
func lockProducts(ctx context.Context, repos appshared.Repositories, organizationID uuid.UUID, ids []uuid.UUID, skipMissing bool) (map[uuid.UUID]*catalog.Product, error) {
	unique := slices.Clone(ids)
	slices.SortFunc(unique, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	unique = slices.Compact(unique)

	products := make(map[uuid.UUID]*catalog.Product, len(unique))
	for _, id := range unique {
		p, err := repos.Products().FindByIDForUpdate(ctx, organizationID, id)
		if errors.Is(err, shared.ErrNotFound) {
			if skipMissing {
				continue
			}
			return nil, shared.ErrInvalidInput.WithMessage("Product %s not found", id)
		}
		if err != nil {
			return nil, err
		}
		products[id] = p
	}
	return products, nil
}

func saleOutMovements(ctx context.Context, repos appshared.Repositories, organizationID, saleID uuid.UUID) ([]inventory.StockMovement, error) {
	filter := inventory.MovementFilter{Filter: shared.DefaultFilter(), SaleID: &saleID, Type: inventory.MovementTypeOut}
	filter.PageSize = 100
	var all []inventory.StockMovement
	for {
		page, total, err := repos.StockMovements().FindAllForTenant(ctx, organizationID, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || int64(len(all)) >= total {
			return all, nil
		}
		filter.Page++
	}
}
