// Package tenant keeps organization-owned rows isolated at the GORM layer.
//
// Repositories scope their queries explicitly with Scope. The callbacks in
// this package add a second guard: when the request context carries an
// organization id, every query against a table that has an organization_id
// column is filtered by it, even if a repository forgot to.
//
//	tenant.Register(db, false)
//	db.WithContext(ctx).Find(&products) // WHERE "products"."organization_id" = ?
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the tenant discriminator column
const Column = "organization_id"

const skipKey = "tenant:skip"

var (
	// ErrTenantIDRequired is returned when a tenant is required but the context carries none
	ErrTenantIDRequired = errors.New("organization id is required but not found in context")
	// ErrInvalidTenantID is returned when the context carries a malformed organization id
	ErrInvalidTenantID = errors.New("invalid organization id format")
)

// Scope filters a query to one organization
func Scope(organizationID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(Column+" = ?", organizationID)
	}
}

// CrossTenant marks a query as intentionally spanning organizations (memberships
// of a user, slug lookups). The callbacks leave such statements alone.
func CrossTenant(db *gorm.DB) *gorm.DB {
	return db.Set(skipKey, true)
}

func isCrossTenant(db *gorm.DB) bool {
	v, ok := db.Get(skipKey)
	if !ok {
		return false
	}
	skip, _ := v.(bool)
	return skip
}
