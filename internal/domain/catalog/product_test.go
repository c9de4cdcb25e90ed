package catalog

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storehub/backend/internal/domain/shared"
)

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct(uuid.New(), "Coffee Beans 1kg", decimal.NewFromFloat(59.90))
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	t.Run("creates product successfully", func(t *testing.T) {
		p := newTestProduct(t)

		assert.Equal(t, "Coffee Beans 1kg", p.Name)
		assert.True(t, p.Price.Equal(decimal.NewFromFloat(59.90)))
		assert.True(t, p.Active)
		assert.True(t, p.ShowInCatalog)
		assert.Equal(t, 0, p.Stock)
		assert.Len(t, p.GetDomainEvents(), 1)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		p, err := NewProduct(uuid.New(), "  ", decimal.NewFromInt(1))

		assert.Nil(t, p)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("fails with negative price", func(t *testing.T) {
		_, err := NewProduct(uuid.New(), "Tea", decimal.NewFromInt(-1))
		assert.Error(t, err)
	})

	t.Run("fails without organization", func(t *testing.T) {
		_, err := NewProduct(uuid.Nil, "Tea", decimal.NewFromInt(1))
		assert.Error(t, err)
	})
}

func TestProduct_Update(t *testing.T) {
	p := newTestProduct(t)

	require.NoError(t, p.Update("Coffee 500g", "Medium roast", "cof-500"))
	assert.Equal(t, "COF-500", p.SKU)
	assert.Equal(t, 2, p.Version)

	assert.Error(t, p.Update("Coffee", "", "bad sku!"))
}

func TestProduct_StockChanges(t *testing.T) {
	t.Run("outbound below zero fails", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.SetInitialStock(2))

		err := p.ApplyStockDelta(-3)

		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 2, p.Stock)
	})

	t.Run("outbound reaching the threshold raises a low stock event", func(t *testing.T) {
		p := newTestProduct(t)
		p.ClearDomainEvents()
		require.NoError(t, p.SetInitialStock(10))
		require.NoError(t, p.SetMinStock(3))

		require.NoError(t, p.ApplyStockDelta(-7))

		assert.Equal(t, 3, p.Stock)
		assert.True(t, p.IsLowStock())
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeProductStockLow, p.GetDomainEvents()[0].EventType())
	})

	t.Run("inbound never raises low stock", func(t *testing.T) {
		p := newTestProduct(t)
		p.ClearDomainEvents()

		require.NoError(t, p.ApplyStockDelta(1))

		assert.Empty(t, p.GetDomainEvents())
	})

	t.Run("adjustment rejects negative balance", func(t *testing.T) {
		p := newTestProduct(t)
		assert.Error(t, p.SetStockBalance(-1))
		require.NoError(t, p.SetStockBalance(42))
		assert.Equal(t, 42, p.Stock)
	})
}

func TestProduct_VisibleInCatalog(t *testing.T) {
	p := newTestProduct(t)

	assert.False(t, p.VisibleInCatalog(false), "out of stock is hidden by default")
	assert.True(t, p.VisibleInCatalog(true))

	require.NoError(t, p.SetInitialStock(1))
	assert.True(t, p.VisibleInCatalog(false))

	p.SetShowInCatalog(false)
	assert.False(t, p.VisibleInCatalog(true))

	p.SetShowInCatalog(true)
	require.NoError(t, p.Deactivate())
	assert.False(t, p.VisibleInCatalog(true))
}

func TestProduct_Images(t *testing.T) {
	p := newTestProduct(t)

	require.NoError(t, p.AddImage("org/products/a.jpg"))
	require.NoError(t, p.AddImage("org/products/a.jpg"))
	assert.Len(t, p.Images, 1)

	assert.Error(t, p.AddImage(""))
	assert.False(t, p.RemoveImage("missing"))
	assert.True(t, p.RemoveImage("org/products/a.jpg"))
	assert.Empty(t, p.Images)

	for i := 0; i < MaxProductImages; i++ {
		require.NoError(t, p.AddImage(uuid.NewString()))
	}
	assert.Error(t, p.AddImage("one-too-many"))
}

func TestProduct_ActivateDeactivate(t *testing.T) {
	p := newTestProduct(t)

	assert.Error(t, p.Activate())
	require.NoError(t, p.Deactivate())
	assert.Error(t, p.Deactivate())
	require.NoError(t, p.Activate())
}

func TestCategory(t *testing.T) {
	c, err := NewCategory(uuid.New(), " Drinks ", "Cold and hot")
	require.NoError(t, err)
	assert.Equal(t, "Drinks", c.Name)

	require.NoError(t, c.Update("Beverages", "", 2))
	assert.Equal(t, 2, c.SortOrder)

	assert.Error(t, c.Update("", "", 0))
	_, err = NewCategory(uuid.New(), "", "")
	assert.Error(t, err)
}
