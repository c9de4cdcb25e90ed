package inventory

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appshared "github.com/storehub/backend/internal/application/shared"
	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/inventory"
	"github.com/storehub/backend/internal/domain/shared"
)

// InventoryService records manual stock movements and reports stock levels
type InventoryService struct {
	txScope     appshared.TransactionScope
	movements   inventory.StockMovementRepository
	productRepo catalog.ProductRepository
	events      shared.EventPublisher
	logger      *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	txScope appshared.TransactionScope,
	movements inventory.StockMovementRepository,
	productRepo catalog.ProductRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *InventoryService {
	if events == nil {
		events = shared.NoopEventPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		txScope:     txScope,
		movements:   movements,
		productRepo: productRepo,
		events:      events,
		logger:      logger,
	}
}

// RecordMovement applies a movement to a product. The product row is locked
// for the duration of the transaction, so concurrent movements serialize.
func (s *InventoryService) RecordMovement(ctx context.Context, organizationID uuid.UUID, req RecordMovementRequest) (*MovementResponse, error) {
	movement, err := inventory.NewStockMovement(organizationID, req.ProductID, req.Type, req.Quantity, req.Reason)
	if err != nil {
		return nil, err
	}
	movement.By(req.CreatedBy)

	var product *catalog.Product
	err = s.txScope.Execute(ctx, func(repos appshared.Repositories) error {
		product, err = repos.Products().FindByIDForUpdate(ctx, organizationID, req.ProductID)
		if err != nil {
			return err
		}
		if err := movement.ApplyTo(product); err != nil {
			return err
		}
		if err := repos.StockMovements().Create(ctx, movement); err != nil {
			return err
		}
		return repos.Products().Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish stock events", zap.Error(err))
	}

	s.logger.Info("Stock movement recorded",
		zap.String("organization_id", organizationID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.String("type", string(req.Type)),
		zap.Int("quantity", req.Quantity),
		zap.Int("balance_after", movement.BalanceAfter))

	resp := ToMovementResponse(movement)
	return &resp, nil
}

// ListMovements returns a page of the stock ledger, newest first
func (s *InventoryService) ListMovements(ctx context.Context, organizationID uuid.UUID, f MovementListFilter) (*shared.Paginated[MovementResponse], error) {
	filter := f.toDomain()
	movements, total, err := s.movements.FindAllForTenant(ctx, organizationID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]MovementResponse, len(movements))
	for i := range movements {
		items[i] = ToMovementResponse(&movements[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// LowStock lists active products whose stock is at or under their minimum
func (s *InventoryService) LowStock(ctx context.Context, organizationID uuid.UUID, page, pageSize int) (*shared.Paginated[LowStockItem], error) {
	active := true
	filter := catalog.ProductFilter{Filter: shared.DefaultFilter(), Active: &active, LowStockOnly: true}
	filter.OrderBy = "stock"
	filter.OrderDir = "asc"
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	filter.Normalize()

	products, total, err := s.productRepo.FindAllForTenant(ctx, organizationID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]LowStockItem, len(products))
	for i, p := range products {
		items[i] = LowStockItem{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Stock:     p.Stock,
			MinStock:  p.MinStock,
			Shortage:  max(p.MinStock-p.Stock, 0),
		}
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}
