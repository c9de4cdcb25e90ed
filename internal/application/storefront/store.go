// Package storefront serves the public, per-organization catalog: subdomain
// resolution, browsing, shopper accounts, checkout and payment webhooks.
package storefront

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/payment"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/storefront"
)

// Gateways holds the checkout gateways configured on this deployment, keyed
// by provider name. A nil map means no provider is configured.
type Gateways map[string]payment.CheckoutGateway

// NewGateways indexes gateways by their provider name, skipping nils
func NewGateways(gateways ...payment.CheckoutGateway) Gateways {
	out := make(Gateways, len(gateways))
	for _, g := range gateways {
		if g != nil {
			out[g.Provider()] = g
		}
	}
	return out
}

// Get returns the gateway for provider
func (g Gateways) Get(provider string) (payment.CheckoutGateway, bool) {
	gw, ok := g[strings.ToUpper(provider)]
	return gw, ok
}

// Providers lists configured provider names in a stable order
func (g Gateways) Providers() []string {
	out := make([]string, 0, len(g))
	for p := range g {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Offered lists providers that are configured and switched on in s
func (g Gateways) Offered(s *storefront.CatalogSettings) []string {
	out := []string{}
	for _, p := range g.Providers() {
		if s.ProviderEnabled(p) {
			out = append(out, p)
		}
	}
	return out
}

type store struct {
	org      *identity.Organization
	settings *storefront.CatalogSettings
}

// storeLoader finds the open storefront behind a slug. Unknown, inactive and
// disabled stores all look the same to shoppers.
type storeLoader struct {
	orgs     identity.OrganizationRepository
	settings storefront.CatalogSettingsRepository
}

func (l storeLoader) load(ctx context.Context, slug string) (*store, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, shared.ErrNotFound.WithMessage("Store not found")
	}
	org, err := l.orgs.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Store not found")
		}
		return nil, err
	}
	if !org.Active {
		return nil, shared.ErrNotFound.WithMessage("Store not found")
	}
	settings, err := l.settings.FindByOrganization(ctx, org.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Store not found")
		}
		return nil, err
	}
	if !settings.Enabled {
		return nil, shared.ErrNotFound.WithMessage("Store not found")
	}
	return &store{org: org, settings: settings}, nil
}
