package storefront

import (
	"context"
	"errors"

	"github.com/google/uuid"

	appcatalog "github.com/storehub/backend/internal/application/catalog"
	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/storefront"
)

// CatalogService serves the public product catalog of a storefront
type CatalogService struct {
	loader     storeLoader
	categories catalog.CategoryRepository
	products   catalog.ProductRepository
	images     appcatalog.ImageURLResolver
	gateways   Gateways
}

// NewCatalogService creates a new CatalogService. images may be nil when
// object storage is disabled.
func NewCatalogService(
	orgs identity.OrganizationRepository,
	settings storefront.CatalogSettingsRepository,
	categories catalog.CategoryRepository,
	products catalog.ProductRepository,
	images appcatalog.ImageURLResolver,
	gateways Gateways,
) *CatalogService {
	return &CatalogService{
		loader:     storeLoader{orgs: orgs, settings: settings},
		categories: categories,
		products:   products,
		images:     images,
		gateways:   gateways,
	}
}

// Store returns the public face of the storefront
func (s *CatalogService) Store(ctx context.Context, slug string) (*StoreResponse, error) {
	st, err := s.loader.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	resp := storeResponse(st.org, st.settings, s.gateways.Offered(st.settings))
	return &resp, nil
}

// Categories lists every category in display order
func (s *CatalogService) Categories(ctx context.Context, slug string) ([]PublicCategory, error) {
	st, err := s.loader.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	filter := shared.DefaultFilter()
	filter.OrderBy = ""
	filter.PageSize = 100
	categories, _, err := s.categories.FindAllForTenant(ctx, st.org.ID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]PublicCategory, len(categories))
	for i, c := range categories {
		out[i] = PublicCategory{ID: c.ID, Name: c.Name, Description: c.Description}
	}
	return out, nil
}

// Products lists visible products. Out-of-stock products are hidden unless
// the store shows them, and prices are hidden when the store says so.
func (s *CatalogService) Products(ctx context.Context, slug string, f PublicProductFilter) (*shared.Paginated[PublicProduct], error) {
	st, err := s.loader.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	filter := s.visibleFilter(st.settings)
	filter.Search = f.Search
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	filter.Filter.Normalize()
	if id, err := uuid.Parse(f.CategoryID); err == nil {
		filter.CategoryID = &id
	}

	products, total, err := s.products.FindAllForTenant(ctx, st.org.ID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]PublicProduct, len(products))
	for i := range products {
		items[i] = toPublicProduct(&products[i], st.settings.ShowPrices, s.images)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Product returns one visible product
func (s *CatalogService) Product(ctx context.Context, slug string, id uuid.UUID) (*PublicProduct, error) {
	st, err := s.loader.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByIDForTenant(ctx, st.org.ID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Product not found")
		}
		return nil, err
	}
	if !p.VisibleInCatalog(st.settings.ShowOutOfStock) {
		return nil, shared.ErrNotFound.WithMessage("Product not found")
	}
	out := toPublicProduct(p, st.settings.ShowPrices, s.images)
	return &out, nil
}

func (s *CatalogService) visibleFilter(settings *storefront.CatalogSettings) catalog.ProductFilter {
	active, shown := true, true
	return catalog.ProductFilter{
		Filter:        shared.DefaultFilter(),
		Active:        &active,
		ShowInCatalog: &shown,
		InStockOnly:   !settings.ShowOutOfStock,
	}
}
