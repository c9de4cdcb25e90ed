package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appshared "github.com/storehub/backend/internal/application/shared"
	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/inventory"
	"github.com/storehub/backend/internal/domain/shared"
)

// ProductService manages products and their images
type ProductService struct {
	txScope      appshared.TransactionScope
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	images       catalog.ImageStorage
	events       shared.EventPublisher
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	txScope appshared.TransactionScope,
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	images catalog.ImageStorage,
	events shared.EventPublisher,
	logger *zap.Logger,
) *ProductService {
	if events == nil {
		events = shared.NoopEventPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		txScope:      txScope,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		images:       images,
		events:       events,
		logger:       logger,
	}
}

// Create creates a product. A positive opening stock is recorded as an IN
// movement in the same transaction.
func (s *ProductService) Create(ctx context.Context, organizationID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(organizationID, req.Name, req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.applyFields(ctx, product, req.fields()); err != nil {
		return nil, err
	}
	if req.Stock < 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Stock cannot be negative")
	}

	err = s.txScope.Execute(ctx, func(repos appshared.Repositories) error {
		if err := repos.Products().Save(ctx, product); err != nil {
			return err
		}
		if req.Stock == 0 {
			return nil
		}
		movement, err := inventory.NewStockMovement(organizationID, product.ID, inventory.MovementTypeIn, req.Stock, inventory.ReasonInitialBalance)
		if err != nil {
			return err
		}
		if err := movement.By(req.CreatedBy).ApplyTo(product); err != nil {
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

	s.publish(ctx, product)
	s.logger.Info("Product created",
		zap.String("organization_id", organizationID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int("stock", product.Stock))

	resp := ToProductResponse(product, s.images)
	return &resp, nil
}

// GetByID retrieves a product
func (s *ProductService) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, s.images)
	return &resp, nil
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, organizationID uuid.UUID, f ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	filter := f.toDomain()
	products, total, err := s.productRepo.FindAllForTenant(ctx, organizationID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i], s.images)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update replaces a product's editable fields
func (s *ProductService) Update(ctx context.Context, organizationID, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if err := product.SetPrices(req.Price, product.CostPrice); err != nil {
		return nil, err
	}
	if err := s.applyFields(ctx, product, req.fields()); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, organizationID, id)
}

// Delete removes a product and, best effort, its stored images
func (s *ProductService) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	product, err := s.productRepo.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.DeleteForTenant(ctx, organizationID, id); err != nil {
		return err
	}
	for _, key := range product.Images {
		s.deleteObject(ctx, key)
	}
	s.logger.Info("Product deleted",
		zap.String("organization_id", organizationID.String()),
		zap.String("product_id", id.String()))
	return nil
}

// Activate makes a product sellable again
func (s *ProductService) Activate(ctx context.Context, organizationID, id uuid.UUID) (*ProductResponse, error) {
	return s.mutate(ctx, organizationID, id, (*catalog.Product).Activate)
}

// Deactivate hides a product from sales and the storefront
func (s *ProductService) Deactivate(ctx context.Context, organizationID, id uuid.UUID) (*ProductResponse, error) {
	return s.mutate(ctx, organizationID, id, (*catalog.Product).Deactivate)
}

// ImageUploadURL issues a presigned PUT for a new product image and records
// its key on the product.
func (s *ProductService) ImageUploadURL(ctx context.Context, organizationID, id uuid.UUID, req ImageUploadRequest) (*catalog.ImageUpload, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if len(product.Images) >= catalog.MaxProductImages {
		return nil, shared.ErrInvalidInput.WithMessage("A product can have at most %d images", catalog.MaxProductImages)
	}
	key, err := catalog.NewImageKey(organizationID, product.ID, req.ContentType)
	if err != nil {
		return nil, err
	}
	upload, err := s.images.PresignUpload(ctx, key, req.ContentType)
	if err != nil {
		return nil, err
	}
	if err := product.AddImage(key); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("Product image upload issued",
		zap.String("product_id", product.ID.String()),
		zap.String("filename", req.Filename),
		zap.String("key", key))
	return upload, nil
}

// RemoveImage detaches an image from a product and deletes the object
func (s *ProductService) RemoveImage(ctx context.Context, organizationID, id uuid.UUID, key string) (*ProductResponse, error) {
	if !catalog.OwnsImageKey(organizationID, key) {
		return nil, shared.ErrForbidden.WithMessage("Image does not belong to this organization")
	}
	product, err := s.productRepo.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if !product.RemoveImage(key) {
		return nil, shared.ErrNotFound.WithMessage("Image not found on product")
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.deleteObject(ctx, key)
	resp := ToProductResponse(product, s.images)
	return &resp, nil
}

func (s *ProductService) mutate(ctx context.Context, organizationID, id uuid.UUID, fn func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, s.images)
	return &resp, nil
}

// productFields are the editable attributes shared by create and update
type productFields struct {
	Name          string
	Description   string
	SKU           string
	CategoryID    *uuid.UUID
	CostPrice     *decimal.Decimal
	MinStock      int
	ShowInCatalog *bool
}

func (s *ProductService) applyFields(ctx context.Context, product *catalog.Product, f productFields) error {
	if err := product.Update(f.Name, f.Description, f.SKU); err != nil {
		return err
	}
	if product.SKU != "" {
		exists, err := s.productRepo.ExistsBySKU(ctx, product.OrganizationID, product.SKU, &product.ID)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithMessage("SKU %s is already in use", product.SKU)
		}
	}
	if f.CategoryID != nil {
		if _, err := s.categoryRepo.FindByIDForTenant(ctx, product.OrganizationID, *f.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrInvalidInput.WithMessage("Category not found")
			}
			return err
		}
	}
	product.SetCategory(f.CategoryID)
	if f.CostPrice != nil {
		if err := product.SetPrices(product.Price, *f.CostPrice); err != nil {
			return err
		}
	}
	if err := product.SetMinStock(f.MinStock); err != nil {
		return err
	}
	if f.ShowInCatalog != nil {
		product.SetShowInCatalog(*f.ShowInCatalog)
	}
	return nil
}

func (s *ProductService) deleteObject(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete product image", zap.String("key", key), zap.Error(err))
	}
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish product events", zap.Error(err))
	}
}
