// Package catalog implements the product and category use cases of the admin API.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/shared"
)

// CategoryService manages product categories
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{categoryRepo: categoryRepo, logger: logger}
}

// Create creates a category; names are unique per organization
func (s *CategoryService) Create(ctx context.Context, organizationID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	category, err := catalog.NewCategory(organizationID, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, organizationID, category.Name, nil); err != nil {
		return nil, err
	}
	if req.SortOrder != 0 {
		if err := category.Update(category.Name, category.Description, req.SortOrder); err != nil {
			return nil, err
		}
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// GetByID retrieves a category
func (s *CategoryService) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// List returns categories ordered by sort order then name unless another order is requested
func (s *CategoryService) List(ctx context.Context, organizationID uuid.UUID, f ListFilter) (*shared.Paginated[CategoryResponse], error) {
	filter := f.ToShared("")
	if f.OrderBy == "" {
		filter.OrderBy = ""
	}
	categories, total, err := s.categoryRepo.FindAllForTenant(ctx, organizationID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]CategoryResponse, len(categories))
	for i := range categories {
		items[i] = ToCategoryResponse(&categories[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update replaces a category's fields
func (s *CategoryService) Update(ctx context.Context, organizationID, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if err := category.Update(req.Name, req.Description, req.SortOrder); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, organizationID, category.Name, &category.ID); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Delete removes a category; its products become uncategorized
func (s *CategoryService) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	if err := s.categoryRepo.DeleteForTenant(ctx, organizationID, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted",
		zap.String("organization_id", organizationID.String()),
		zap.String("category_id", id.String()))
	return nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, organizationID uuid.UUID, name string, excludeID *uuid.UUID) error {
	exists, err := s.categoryRepo.ExistsByName(ctx, organizationID, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.ErrAlreadyExists.WithMessage("Category %q already exists", name)
	}
	return nil
}
