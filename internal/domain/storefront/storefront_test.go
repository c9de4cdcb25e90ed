package storefront

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSettings_Apply(t *testing.T) {
	s := NewDefaultCatalogSettings(uuid.New(), "Acme")
	assert.True(t, s.Enabled)
	assert.True(t, s.ShowPrices)

	err := s.Apply(SettingsUpdate{
		Enabled:       true,
		Title:         " Acme Store ",
		PrimaryColor:  "#ff0000",
		StripeEnabled: true,
		Banners:       []string{"a.jpg", "b.jpg"},
		Theme:         map[string]any{"font": "Inter"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Acme Store", s.Title)
	assert.True(t, s.ProviderEnabled(ProviderStripe))
	assert.False(t, s.ProviderEnabled(ProviderAsaas))
	assert.False(t, s.ProviderEnabled("PAYPAL"))
	assert.Len(t, s.Banners, 2)
	assert.Equal(t, "Inter", s.Theme["font"])
}

func TestCatalogSettings_ApplyRejectsInvalid(t *testing.T) {
	s := NewDefaultCatalogSettings(uuid.New(), "Acme")

	assert.Error(t, s.Apply(SettingsUpdate{PrimaryColor: "red"}))
	assert.Error(t, s.Apply(SettingsUpdate{Banners: make([]string, MaxBanners+1)}))
	assert.Equal(t, "Acme", s.Title, "rejected update leaves settings untouched")
}

func TestNewCatalogUser(t *testing.T) {
	u, err := NewCatalogUser(uuid.New(), uuid.New(), "Bia", "BIA@mail.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "bia@mail.com", u.Email)
	assert.True(t, u.VerifyPassword("password1"))
	assert.False(t, u.VerifyPassword("password2"))

	_, err = NewCatalogUser(uuid.New(), uuid.Nil, "Bia", "bia@mail.com", "password1")
	assert.Error(t, err)
}

func TestNewCheckout(t *testing.T) {
	items := []CheckoutItem{
		{ProductID: uuid.New(), ProductName: "Mug", Quantity: 2, UnitPrice: decimal.RequireFromString("25.00")},
		{ProductID: uuid.New(), ProductName: "Tee", Quantity: 1, UnitPrice: decimal.RequireFromString("60.00")},
	}

	t.Run("computes total and deadline", func(t *testing.T) {
		c, err := NewCheckout(uuid.New(), uuid.New(), ProviderStripe, items, time.Hour)

		require.NoError(t, err)
		assert.Equal(t, "110.00", c.Total.StringFixed(2))
		assert.Equal(t, CheckoutStatusPending, c.Status)
		assert.WithinDuration(t, c.CreatedAt.Add(time.Hour), c.ExpiresAt, time.Second)
	})

	t.Run("rejects unknown provider and empty cart", func(t *testing.T) {
		_, err := NewCheckout(uuid.New(), uuid.New(), "PAYPAL", items, 0)
		assert.Error(t, err)
		_, err = NewCheckout(uuid.New(), uuid.New(), ProviderAsaas, nil, 0)
		assert.Error(t, err)
	})

	t.Run("rejects zero total", func(t *testing.T) {
		free := []CheckoutItem{{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.Zero}}
		_, err := NewCheckout(uuid.New(), uuid.New(), ProviderAsaas, free, 0)
		assert.Error(t, err)
	})
}

func TestCheckout_Lifecycle(t *testing.T) {
	items := []CheckoutItem{{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(10)}}
	c, err := NewCheckout(uuid.New(), uuid.New(), ProviderAsaas, items, time.Minute)
	require.NoError(t, err)

	assert.False(t, c.IsExpired(time.Now()))
	assert.True(t, c.IsExpired(time.Now().Add(2*time.Minute)))

	saleID := uuid.New()
	require.NoError(t, c.Complete(saleID))
	require.NoError(t, c.Complete(saleID), "completing twice with the same sale is a no-op")
	assert.Error(t, c.Complete(uuid.New()))
	assert.Error(t, c.Expire())
}
