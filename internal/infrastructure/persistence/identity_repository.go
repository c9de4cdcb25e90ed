package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormOrganizationRepository implements identity.OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// FindByID finds an organization by id
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Organization, error) {
	var org identity.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &org, nil
}

// FindBySlug finds an organization by its subdomain slug
func (r *GormOrganizationRepository) FindBySlug(ctx context.Context, slug string) (*identity.Organization, error) {
	var org identity.Organization
	if err := r.db.WithContext(ctx).Where("slug = ?", strings.ToLower(slug)).First(&org).Error; err != nil {
		return nil, translate(err)
	}
	return &org, nil
}

// ExistsBySlug reports whether a slug is taken
func (r *GormOrganizationRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&identity.Organization{}).
		Where("slug = ?", strings.ToLower(slug)).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates an organization
func (r *GormOrganizationRepository) Save(ctx context.Context, org *identity.Organization) error {
	return translate(r.db.WithContext(ctx).Save(org).Error)
}

// GormUserRepository implements identity.UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by id
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var user identity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByEmail finds a user by email (case-insensitive)
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var user identity.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ExistsByEmail reports whether an email is registered
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&identity.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates a user
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// GormMemberRepository implements identity.MemberRepository
type GormMemberRepository struct {
	db *gorm.DB
}

// NewGormMemberRepository creates a new GormMemberRepository
func NewGormMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

// Find returns the membership of a user in an organization
func (r *GormMemberRepository) Find(ctx context.Context, organizationID, userID uuid.UUID) (*identity.Member, error) {
	var m identity.Member
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Scopes(tenant.Scope(organizationID)).
		Where("user_id = ?", userID).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// FindByUser lists every organization a user belongs to, oldest first
func (r *GormMemberRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]identity.Member, error) {
	var members []identity.Member
	err := tenant.CrossTenant(r.db.WithContext(ctx)).
		Preload("Organization").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// FindByOrganization lists the members of an organization with their users
func (r *GormMemberRepository) FindByOrganization(ctx context.Context, organizationID uuid.UUID) ([]identity.Member, error) {
	var members []identity.Member
	err := r.db.WithContext(ctx).
		Preload("User").
		Scopes(tenant.Scope(organizationID)).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// CountByRole counts members holding a role
func (r *GormMemberRepository) CountByRole(ctx context.Context, organizationID uuid.UUID, role identity.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&identity.Member{}).
		Scopes(tenant.Scope(organizationID)).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

// Save creates or updates a membership
func (r *GormMemberRepository) Save(ctx context.Context, member *identity.Member) error {
	return translate(r.db.WithContext(ctx).Omit("Organization", "User").Save(member).Error)
}

// Delete removes a membership
func (r *GormMemberRepository) Delete(ctx context.Context, organizationID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenant.Scope(organizationID)).
		Where("user_id = ?", userID).
		Delete(&identity.Member{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound)
	}
	return nil
}
