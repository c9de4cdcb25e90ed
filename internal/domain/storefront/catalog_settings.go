package storefront

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/storehub/backend/internal/domain/shared"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}){1,2}$`)

// MaxBanners caps the storefront banner carousel
const MaxBanners = 8

// CatalogSettings configures an organization's public storefront
type CatalogSettings struct {
	shared.BaseEntity
	OrganizationID uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex"`
	Enabled        bool                        `gorm:"not null"`
	Title          string                      `gorm:"type:varchar(200)"`
	Description    string                      `gorm:"type:text"`
	LogoURL        string                      `gorm:"type:varchar(500)"`
	PrimaryColor   string                      `gorm:"type:varchar(7)"`
	WhatsApp       string                      `gorm:"column:whatsapp;type:varchar(30)"`
	ShowPrices     bool                        `gorm:"not null"`
	ShowOutOfStock bool                        `gorm:"not null"`
	StripeEnabled  bool                        `gorm:"not null"`
	AsaasEnabled   bool                        `gorm:"not null"`
	Banners        datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Theme          datatypes.JSONMap           `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (CatalogSettings) TableName() string {
	return "catalog_settings"
}

// NewDefaultCatalogSettings returns the settings a new organization starts with
func NewDefaultCatalogSettings(organizationID uuid.UUID, title string) *CatalogSettings {
	return &CatalogSettings{
		BaseEntity:     shared.NewBaseEntity(),
		OrganizationID: organizationID,
		Enabled:        true,
		Title:          title,
		PrimaryColor:   "#111827",
		ShowPrices:     true,
		Banners:        datatypes.JSONSlice[string]{},
		Theme:          datatypes.JSONMap{},
	}
}

// SettingsUpdate carries the editable storefront fields
type SettingsUpdate struct {
	Enabled        bool
	Title          string
	Description    string
	LogoURL        string
	PrimaryColor   string
	WhatsApp       string
	ShowPrices     bool
	ShowOutOfStock bool
	StripeEnabled  bool
	AsaasEnabled   bool
	Banners        []string
	Theme          map[string]any
}

// Apply validates and applies an update
func (s *CatalogSettings) Apply(u SettingsUpdate) error {
	title := strings.TrimSpace(u.Title)
	if len(title) > 200 {
		return shared.ErrInvalidInput.WithMessage("Title cannot exceed 200 characters")
	}
	if u.PrimaryColor != "" && !hexColor.MatchString(u.PrimaryColor) {
		return shared.ErrInvalidInput.WithMessage("Primary color must be a hex color like #1a2b3c")
	}
	if len(u.Banners) > MaxBanners {
		return shared.ErrInvalidInput.WithMessage("At most %d banners are allowed", MaxBanners)
	}

	s.Enabled = u.Enabled
	s.Title = title
	s.Description = strings.TrimSpace(u.Description)
	s.LogoURL = strings.TrimSpace(u.LogoURL)
	s.PrimaryColor = u.PrimaryColor
	s.WhatsApp = strings.TrimSpace(u.WhatsApp)
	s.ShowPrices = u.ShowPrices
	s.ShowOutOfStock = u.ShowOutOfStock
	s.StripeEnabled = u.StripeEnabled
	s.AsaasEnabled = u.AsaasEnabled
	s.Banners = datatypes.JSONSlice[string](append([]string{}, u.Banners...))
	if u.Theme != nil {
		s.Theme = datatypes.JSONMap(u.Theme)
	}
	s.Touch()
	return nil
}

// ProviderEnabled reports whether checkout through provider is switched on
func (s *CatalogSettings) ProviderEnabled(provider string) bool {
	switch provider {
	case ProviderStripe:
		return s.StripeEnabled
	case ProviderAsaas:
		return s.AsaasEnabled
	default:
		return false
	}
}
