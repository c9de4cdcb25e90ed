package storefront

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/storefront"
)

// SettingsService lets staff configure their storefront
type SettingsService struct {
	settings storefront.CatalogSettingsRepository
	orgs     identity.OrganizationRepository
	gateways Gateways
	resolver *Resolver
	logger   *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(
	settings storefront.CatalogSettingsRepository,
	orgs identity.OrganizationRepository,
	gateways Gateways,
	resolver *Resolver,
	logger *zap.Logger,
) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{settings: settings, orgs: orgs, gateways: gateways, resolver: resolver, logger: logger}
}

// Get returns the settings, creating the defaults for organizations that predate them
func (s *SettingsService) Get(ctx context.Context, organizationID uuid.UUID) (*SettingsResponse, error) {
	settings, err := s.find(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	resp := ToSettingsResponse(settings, s.gateways.Providers())
	return &resp, nil
}

// Update replaces the settings. A provider can only be switched on when it is
// configured on this deployment.
func (s *SettingsService) Update(ctx context.Context, organizationID uuid.UUID, req UpdateSettingsRequest) (*SettingsResponse, error) {
	settings, err := s.find(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	for provider, on := range map[string]bool{storefront.ProviderStripe: req.StripeEnabled, storefront.ProviderAsaas: req.AsaasEnabled} {
		if _, ok := s.gateways.Get(provider); on && !ok {
			return nil, shared.ErrInvalidInput.WithMessage("%s payments are not configured on this server", provider)
		}
	}
	wasEnabled := settings.Enabled
	if err := settings.Apply(req.toDomain()); err != nil {
		return nil, err
	}
	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, err
	}

	if wasEnabled != settings.Enabled {
		if org, err := s.orgs.FindByID(ctx, organizationID); err == nil {
			s.resolver.Invalidate(ctx, org.Slug)
		}
	}
	s.logger.Info("Catalog settings updated",
		zap.String("organization_id", organizationID.String()),
		zap.Bool("enabled", settings.Enabled))

	resp := ToSettingsResponse(settings, s.gateways.Providers())
	return &resp, nil
}

func (s *SettingsService) find(ctx context.Context, organizationID uuid.UUID) (*storefront.CatalogSettings, error) {
	settings, err := s.settings.FindByOrganization(ctx, organizationID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	settings = storefront.NewDefaultCatalogSettings(org.ID, org.Name)
	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
