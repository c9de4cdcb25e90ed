package trade

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storehub/backend/internal/domain/shared"
)

func lines() []SaleLine {
	return []SaleLine{
		{ProductID: uuid.New(), ProductName: "Espresso", Quantity: 2, UnitPrice: decimal.RequireFromString("7.50")},
		{ProductID: uuid.New(), ProductName: "Croissant", Quantity: 3, UnitPrice: decimal.RequireFromString("9.90")},
	}
}

func TestNewSale(t *testing.T) {
	t.Run("computes totals from lines", func(t *testing.T) {
		sale, err := NewSale(uuid.New(), lines(), SaleOptions{Discount: decimal.RequireFromString("4.70")})

		require.NoError(t, err)
		assert.Equal(t, "44.70", sale.Subtotal.StringFixed(2))
		assert.Equal(t, "40.00", sale.Total.StringFixed(2))
		assert.Equal(t, SaleStatusCompleted, sale.Status)
		assert.Equal(t, PaymentMethodCash, sale.PaymentMethod)
		assert.Equal(t, SaleSourceAdmin, sale.Source)
		assert.NotNil(t, sale.CompletedAt)
		require.Len(t, sale.Items, 2)
		assert.Equal(t, sale.ID, sale.Items[0].SaleID)
		assert.Equal(t, "15.00", sale.Items[0].Total.StringFixed(2))
		assert.Equal(t, 5, sale.ItemCount())
		assert.False(t, sale.IsExternal())
	})

	t.Run("provider confirmed sale is external", func(t *testing.T) {
		sale, err := NewSale(uuid.New(), lines(), SaleOptions{PaymentProvider: PaymentProviderAsaas, ExternalID: "pay_1"})

		require.NoError(t, err)
		assert.True(t, sale.IsExternal())
	})

	t.Run("pending sale has no completion time", func(t *testing.T) {
		sale, err := NewSale(uuid.New(), lines(), SaleOptions{Pending: true})

		require.NoError(t, err)
		assert.Equal(t, SaleStatusPending, sale.Status)
		assert.Nil(t, sale.CompletedAt)
	})

	t.Run("validation failures", func(t *testing.T) {
		org := uuid.New()
		cases := map[string]struct {
			lines []SaleLine
			opts  SaleOptions
		}{
			"no lines":             {nil, SaleOptions{}},
			"zero quantity":        {[]SaleLine{{ProductID: uuid.New(), Quantity: 0}}, SaleOptions{}},
			"negative unit price":  {[]SaleLine{{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}}, SaleOptions{}},
			"missing product":      {[]SaleLine{{Quantity: 1}}, SaleOptions{}},
			"discount over total":  {lines(), SaleOptions{Discount: decimal.NewFromInt(100)}},
			"negative discount":    {lines(), SaleOptions{Discount: decimal.NewFromInt(-1)}},
			"bad payment method":   {lines(), SaleOptions{PaymentMethod: "BARTER"}},
			"provider without ref": {lines(), SaleOptions{PaymentProvider: PaymentProviderStripe}},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := NewSale(org, tc.lines, tc.opts)
				assert.True(t, errors.Is(err, shared.ErrInvalidInput), "got %v", err)
			})
		}
	})
}

func TestSale_AssignNumber(t *testing.T) {
	sale, err := NewSale(uuid.New(), lines(), SaleOptions{})
	require.NoError(t, err)

	sale.AssignNumber(42)

	assert.Equal(t, int64(42), sale.Number)
	require.Len(t, sale.GetDomainEvents(), 1)
	evt, ok := sale.GetDomainEvents()[0].(*SaleCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(42), evt.Number)
}

func TestSale_StatusTransitions(t *testing.T) {
	t.Run("pending to completed", func(t *testing.T) {
		sale, _ := NewSale(uuid.New(), lines(), SaleOptions{Pending: true})
		require.NoError(t, sale.Complete())
		assert.Equal(t, SaleStatusCompleted, sale.Status)
		assert.Error(t, sale.Complete())
	})

	t.Run("cancel once", func(t *testing.T) {
		sale, _ := NewSale(uuid.New(), lines(), SaleOptions{})
		require.NoError(t, sale.Cancel())
		assert.Equal(t, SaleStatusCancelled, sale.Status)
		assert.NotNil(t, sale.CancelledAt)

		err := sale.Cancel()
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})
}

func TestSubtotal(t *testing.T) {
	assert.True(t, Subtotal(nil).IsZero())
	assert.Equal(t, "44.70", Subtotal(lines()).StringFixed(2))
}
