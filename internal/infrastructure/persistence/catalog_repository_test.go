package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repos *Repositories, orgID uuid.UUID, name string, price int64, stock, minStock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(orgID, name, decimal.NewFromInt(price))
	require.NoError(t, err)
	require.NoError(t, p.SetInitialStock(stock))
	require.NoError(t, p.SetMinStock(minStock))
	require.NoError(t, repos.Products().Save(context.Background(), p))
	return p
}

func TestProductRepository_TenantIsolation(t *testing.T) {
	repos := NewRepositories(newTestDB(t))
	ctx := context.Background()
	orgA, orgB := uuid.New(), uuid.New()

	p := seedProduct(t, repos, orgA, "Caneca", 30, 10, 2)
	seedProduct(t, repos, orgB, "Caneca B", 30, 10, 2)

	_, err := repos.Products().FindByIDForTenant(ctx, orgB, p.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	list, total, err := repos.Products().FindAllForTenant(ctx, orgA, catalog.ProductFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	byIDs, err := repos.Products().FindByIDs(ctx, orgB, []uuid.UUID{p.ID})
	require.NoError(t, err)
	assert.Empty(t, byIDs)

	assert.ErrorIs(t, repos.Products().DeleteForTenant(ctx, orgB, p.ID), shared.ErrNotFound)
}

func TestProductRepository_Filters(t *testing.T) {
	repos := NewRepositories(newTestDB(t))
	ctx := context.Background()
	orgID := uuid.New()

	cat, err := catalog.NewCategory(orgID, "Bebidas", "")
	require.NoError(t, err)
	require.NoError(t, repos.Categories().Save(ctx, cat))

	coffee := seedProduct(t, repos, orgID, "Café 100%", 20, 1, 5)
	coffee.SetCategory(&cat.ID)
	require.NoError(t, coffee.Update(coffee.Name, "", "caf-01"))
	require.NoError(t, repos.Products().Save(ctx, coffee))
	seedProduct(t, repos, orgID, "Chá", 15, 0, 0)
	seedProduct(t, repos, orgID, "Bolo", 40, 12, 3)

	search := catalog.ProductFilter{Filter: shared.DefaultFilter()}
	search.Search = "100%"
	list, _, err := repos.Products().FindAllForTenant(ctx, orgID, search)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, coffee.ID, list[0].ID)
	require.NotNil(t, list[0].Category)
	assert.Equal(t, "Bebidas", list[0].Category.Name)

	inStock := catalog.ProductFilter{Filter: shared.DefaultFilter(), InStockOnly: true}
	_, total, err := repos.Products().FindAllForTenant(ctx, orgID, inStock)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	low := catalog.ProductFilter{Filter: shared.DefaultFilter(), LowStockOnly: true}
	_, total, err = repos.Products().FindAllForTenant(ctx, orgID, low)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	count, err := repos.Products().CountLowStock(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	other := uuid.New()
	seedProduct(t, repos, other, "Pão", 5, 0, 2)
	byOrg, err := repos.Products().CountLowStockByOrganization(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{orgID: 2, other: 1}, byOrg)

	exists, err := repos.Products().ExistsBySKU(ctx, orgID, "CAF-01", nil)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repos.Products().ExistsBySKU(ctx, orgID, "CAF-01", &coffee.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	locked, err := repos.Products().FindByIDForUpdate(ctx, orgID, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, locked.Stock)
}

func TestCategoryRepository(t *testing.T) {
	repos := NewRepositories(newTestDB(t))
	ctx := context.Background()
	orgID := uuid.New()

	cat, err := catalog.NewCategory(orgID, "Roupas", "")
	require.NoError(t, err)
	require.NoError(t, repos.Categories().Save(ctx, cat))

	exists, err := repos.Categories().ExistsByName(ctx, orgID, "roupas", nil)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repos.Categories().ExistsByName(ctx, uuid.New(), "roupas", nil)
	require.NoError(t, err)
	assert.False(t, exists)

	p := seedProduct(t, repos, orgID, "Camiseta", 50, 3, 0)
	p.SetCategory(&cat.ID)
	require.NoError(t, repos.Products().Save(ctx, p))

	require.NoError(t, repos.Categories().DeleteForTenant(ctx, orgID, cat.ID))

	reloaded, err := repos.Products().FindByIDForTenant(ctx, orgID, p.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.CategoryID)

	list, total, err := repos.Categories().FindAllForTenant(ctx, orgID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}
