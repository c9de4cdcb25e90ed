package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appshared "github.com/storehub/backend/internal/application/shared"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/infrastructure/auth"
)

var errInvalidCredentials = shared.ErrUnauthorized.WithMessage("Invalid email or password")

// AuthService handles staff registration, login and token lifecycle
type AuthService struct {
	txScope   appshared.TransactionScope
	orgs      identity.OrganizationRepository
	users     identity.UserRepository
	members   identity.MemberRepository
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	events    shared.EventPublisher
	reserved  identity.ReservedSet
	logger    *zap.Logger
}

// AuthOption configures an AuthService
type AuthOption func(*AuthService)

// WithReservedSlugs refuses organization slugs in labels on top of the
// default reserved subdomains
func WithReservedSlugs(labels []string) AuthOption {
	return func(s *AuthService) {
		s.reserved = identity.ReservedSubdomains(labels)
	}
}

// NewAuthService creates a new authentication service
func NewAuthService(
	txScope appshared.TransactionScope,
	orgs identity.OrganizationRepository,
	users identity.UserRepository,
	members identity.MemberRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	logger *zap.Logger,
	opts ...AuthOption,
) *AuthService {
	if blacklist == nil {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	if events == nil {
		events = shared.NoopEventPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuthService{
		txScope:   txScope,
		orgs:      orgs,
		users:     users,
		members:   members,
		jwt:       jwtService,
		blacklist: blacklist,
		events:    events,
		reserved:  identity.ReservedSubdomains(nil),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the user, their organization with default storefront
// settings and the OWNER membership in one transaction.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	user, err := identity.NewUser(req.Name, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	org, err := identity.NewOrganization(req.OrganizationName, req.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.reserved.Check(org.Slug); err != nil {
		return nil, err
	}
	member, err := identity.NewMember(org.ID, user.ID, identity.RoleOwner)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos appshared.Repositories) error {
		exists, err := repos.Users().ExistsByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithMessage("Email is already registered")
		}
		taken, err := repos.Organizations().ExistsBySlug(ctx, org.Slug)
		if err != nil {
			return err
		}
		if taken {
			return shared.ErrAlreadyExists.WithMessage("Slug %s is already taken", org.Slug)
		}
		if err := repos.Users().Save(ctx, user); err != nil {
			return err
		}
		if err := repos.Organizations().Save(ctx, org); err != nil {
			return err
		}
		if err := repos.CatalogSettings().Save(ctx, storefront.NewDefaultCatalogSettings(org.ID, org.Name)); err != nil {
			return err
		}
		return repos.Members().Save(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	events := org.GetDomainEvents()
	org.ClearDomainEvents()
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish organization events", zap.Error(err))
	}

	s.logger.Info("Organization registered",
		zap.String("organization_id", org.ID.String()),
		zap.String("slug", org.Slug),
		zap.String("user_id", user.ID.String()))

	return s.issue(user, org, identity.RoleOwner)
}

// Login authenticates by email and password and picks a membership
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown email")
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !user.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, errInvalidCredentials
	}
	if !user.CanLogin() {
		return nil, shared.ErrForbidden.WithMessage("Account has been deactivated")
	}

	member, err := s.selectMembership(ctx, user.ID, req.OrganizationSlug)
	if err != nil {
		return nil, err
	}

	user.RecordLogin()
	if err := s.users.Save(ctx, user); err != nil {
		s.logger.Error("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("organization_id", member.OrganizationID.String()))
	return s.issue(user, member.Organization, member.Role)
}

// Refresh rotates a refresh token. The role is re-read from the membership,
// so role changes take effect on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return nil, tokenError(auth.ErrInvalidClaims)
	}
	orgID, err := claims.TenantUUID()
	if err != nil {
		return nil, tokenError(auth.ErrInvalidClaims)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAsUnauthorized(err)
	}
	if !user.CanLogin() {
		return nil, shared.ErrForbidden.WithMessage("Account has been deactivated")
	}
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, notFoundAsUnauthorized(err)
	}
	member, err := s.members.Find(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrForbidden.WithMessage("Membership has been removed")
		}
		return nil, err
	}

	result, err := s.issue(user, org, member.Role)
	if err != nil {
		return nil, err
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke rotated refresh token", zap.Error(err))
	}
	return result, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	if err := s.blacklist.Revoke(ctx, access.ID, access.RemainingTTL()); err != nil {
		return err
	}
	if refreshToken != "" {
		if claims, err := s.jwt.ValidateRefreshToken(refreshToken); err == nil && claims.UserID == access.UserID {
			if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
				return err
			}
		}
	}
	s.logger.Info("User logged out",
		zap.String("user_id", access.UserID),
		zap.String("organization_id", access.TenantID))
	return nil
}

// Me returns the caller, the active organization and all memberships
func (s *AuthService) Me(ctx context.Context, organizationID, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.members.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &MeResponse{User: ToUserInfo(user), Organizations: make([]MembershipInfo, 0, len(memberships))}
	found := false
	for i := range memberships {
		m := &memberships[i]
		if m.Organization == nil {
			continue
		}
		info := ToOrganizationInfo(m.Organization)
		resp.Organizations = append(resp.Organizations, MembershipInfo{Organization: info, Role: m.Role})
		if m.OrganizationID == organizationID {
			resp.Organization = info
			resp.Role = m.Role
			found = true
		}
	}
	if !found {
		return nil, shared.ErrForbidden.WithMessage("Not a member of this organization")
	}
	return resp, nil
}

// SwitchOrganization issues tokens for another of the user's organizations
func (s *AuthService) SwitchOrganization(ctx context.Context, userID uuid.UUID, slug string) (*AuthResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	org, err := s.orgs.FindBySlug(ctx, identity.NormalizeSlug(slug))
	if err != nil {
		return nil, err
	}
	member, err := s.members.Find(ctx, org.ID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrForbidden.WithMessage("Not a member of %s", org.Slug)
		}
		return nil, err
	}
	if !org.Active {
		return nil, shared.ErrForbidden.WithMessage("Organization is inactive")
	}
	return s.issue(user, org, member.Role)
}

// ChangePassword replaces the password and revokes every token issued before
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	if err := s.blacklist.RevokeUser(ctx, userID.String(), s.jwt.RefreshTokenExpiration()); err != nil {
		s.logger.Warn("Failed to revoke existing tokens", zap.String("user_id", userID.String()), zap.Error(err))
	}
	s.logger.Info("User password changed", zap.String("user_id", userID.String()))
	return nil
}

// CheckToken reports whether a validated token was revoked
func (s *AuthService) CheckToken(ctx context.Context, claims *auth.Claims) error {
	return s.checkRevoked(ctx, claims)
}

func (s *AuthService) selectMembership(ctx context.Context, userID uuid.UUID, slug string) (*identity.Member, error) {
	memberships, err := s.members.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	slug = identity.NormalizeSlug(slug)
	for i := range memberships {
		m := &memberships[i]
		if m.Organization == nil || !m.Organization.Active {
			continue
		}
		if slug == "" || m.Organization.Slug == slug {
			return m, nil
		}
	}
	if slug != "" {
		return nil, shared.ErrForbidden.WithMessage("Not a member of %s", slug)
	}
	return nil, shared.ErrForbidden.WithMessage("User has no active organization")
}

func (s *AuthService) issue(user *identity.User, org *identity.Organization, role identity.Role) (*AuthResult, error) {
	tokens, err := s.jwt.GenerateTokenPair(auth.StaffTokenInput{
		TenantID: org.ID,
		UserID:   user.ID,
		Email:    user.Email,
		Role:     string(role),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return &AuthResult{
		Tokens:       tokens,
		User:         ToUserInfo(user),
		Organization: ToOrganizationInfo(org),
		Role:         role,
	}, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return tokenError(auth.ErrTokenBlacklisted)
	}
	return nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.ErrUnauthorized.WithMessage("Token has expired")
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return shared.ErrUnauthorized.WithMessage("Token has been revoked")
	default:
		return shared.ErrUnauthorized.WithMessage("Invalid token")
	}
}

func notFoundAsUnauthorized(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return tokenError(auth.ErrInvalidClaims)
	}
	return err
}
