package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storehub/backend/internal/domain/catalog"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/infrastructure/persistence"
)

// TestPassword satisfies the password policy of every seeded account
const TestPassword = "s3cret-pass"

// SeedOrganization stores an active organization with enabled storefront settings
func SeedOrganization(t *testing.T, db *gorm.DB, name, slug string) *identity.Organization {
	t.Helper()

	org, err := identity.NewOrganization(name, slug)
	require.NoError(t, err)
	org.ClearDomainEvents()

	repos := persistence.NewRepositories(db)
	require.NoError(t, repos.Organizations().Save(context.Background(), org))
	settings := storefront.NewDefaultCatalogSettings(org.ID, org.Name)
	require.NoError(t, repos.CatalogSettings().Save(context.Background(), settings))
	return org
}

// SeedUser stores a staff user with TestPassword
func SeedUser(t *testing.T, db *gorm.DB, name, email string) *identity.User {
	t.Helper()

	user, err := identity.NewUser(name, email, TestPassword)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(db).Save(context.Background(), user))
	return user
}

// SeedMember links user to org with role
func SeedMember(t *testing.T, db *gorm.DB, org *identity.Organization, user *identity.User, role identity.Role) *identity.Member {
	t.Helper()

	m, err := identity.NewMember(org.ID, user.ID, role)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormMemberRepository(db).Save(context.Background(), m))
	return m
}

// SeedProduct stores an active, storefront-visible product
func SeedProduct(t *testing.T, db *gorm.DB, orgID uuid.UUID, name, price string, stock int) *catalog.Product {
	t.Helper()

	p, err := catalog.NewProduct(orgID, name, decimal.RequireFromString(price))
	require.NoError(t, err)
	require.NoError(t, p.SetInitialStock(stock))
	p.ClearDomainEvents()
	require.NoError(t, persistence.NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

// SeedCategory stores a category
func SeedCategory(t *testing.T, db *gorm.DB, orgID uuid.UUID, name string) *catalog.Category {
	t.Helper()

	c, err := catalog.NewCategory(orgID, name, "")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCategoryRepository(db).Save(context.Background(), c))
	return c
}

// SeedCustomer stores a customer
func SeedCustomer(t *testing.T, db *gorm.DB, orgID uuid.UUID, name, email string) *partner.Customer {
	t.Helper()

	c, err := partner.NewCustomer(orgID, name, email, "", "")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCustomerRepository(db).Save(context.Background(), c))
	return c
}

// UpdateCatalogSettings mutates and saves the organization's storefront settings
func UpdateCatalogSettings(t *testing.T, db *gorm.DB, orgID uuid.UUID, mutate func(*storefront.CatalogSettings)) *storefront.CatalogSettings {
	t.Helper()

	repo := persistence.NewGormCatalogSettingsRepository(db)
	s, err := repo.FindByOrganization(context.Background(), orgID)
	require.NoError(t, err)
	mutate(s)
	require.NoError(t, repo.Save(context.Background(), s))
	return s
}

// Decimal parses a decimal literal, panicking on malformed input
func Decimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
