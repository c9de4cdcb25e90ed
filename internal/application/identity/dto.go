package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/infrastructure/auth"
)

// RegisterRequest creates a user together with their first organization
type RegisterRequest struct {
	Name             string `json:"name" binding:"required,min=1,max=200"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8,max=72"`
	OrganizationName string `json:"organization_name" binding:"required,min=1,max=200"`
	Slug             string `json:"slug" binding:"omitempty,min=3,max=63"`
}

// LoginRequest authenticates a staff user. OrganizationSlug picks the
// membership; the oldest one is used when it is empty.
type LoginRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required"`
	OrganizationSlug string `json:"organization_slug"`
}

// RefreshRequest exchanges a refresh token for a new pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally carries the refresh token so it is revoked too
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SwitchOrganizationRequest selects another membership
type SwitchOrganizationRequest struct {
	Slug string `json:"slug" binding:"required"`
}

// ChangePasswordRequest replaces the caller's password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// UserInfo is the public view of a staff user
type UserInfo struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// OrganizationInfo is the public view of an organization
type OrganizationInfo struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Document string    `json:"document"`
	Active   bool      `json:"active"`
}

// MembershipInfo is one organization the user belongs to
type MembershipInfo struct {
	Organization OrganizationInfo `json:"organization"`
	Role         identity.Role    `json:"role"`
}

// AuthResult is returned by Register, Login, Refresh and SwitchOrganization
type AuthResult struct {
	Tokens       *auth.TokenPair  `json:"tokens"`
	User         UserInfo         `json:"user"`
	Organization OrganizationInfo `json:"organization"`
	Role         identity.Role    `json:"role"`
}

// MeResponse describes the caller and every membership they hold
type MeResponse struct {
	User          UserInfo         `json:"user"`
	Organization  OrganizationInfo `json:"organization"`
	Role          identity.Role    `json:"role"`
	Organizations []MembershipInfo `json:"organizations"`
}

// UpdateOrganizationRequest edits the current organization's profile
type UpdateOrganizationRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"max=50"`
	Document string `json:"document" binding:"max=30"`
}

// AddMemberRequest grants an existing user access to the organization
type AddMemberRequest struct {
	Email string        `json:"email" binding:"required,email"`
	Role  identity.Role `json:"role" binding:"required,oneof=OWNER ADMIN MEMBER"`
}

// MemberResponse is one member of an organization
type MemberResponse struct {
	UserID    uuid.UUID     `json:"user_id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Role      identity.Role `json:"role"`
	CreatedAt time.Time     `json:"created_at"`
}

// ToUserInfo converts a domain user
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{ID: u.ID, Name: u.Name, Email: u.Email, LastLoginAt: u.LastLoginAt}
}

// ToOrganizationInfo converts a domain organization
func ToOrganizationInfo(o *identity.Organization) OrganizationInfo {
	return OrganizationInfo{
		ID:       o.ID,
		Name:     o.Name,
		Slug:     o.Slug,
		Email:    o.Email,
		Phone:    o.Phone,
		Document: o.Document,
		Active:   o.Active,
	}
}

// ToMemberResponse converts a membership with its User preloaded
func ToMemberResponse(m *identity.Member) MemberResponse {
	resp := MemberResponse{UserID: m.UserID, Role: m.Role, CreatedAt: m.CreatedAt}
	if m.User != nil {
		resp.Name = m.User.Name
		resp.Email = m.User.Email
	}
	return resp
}
