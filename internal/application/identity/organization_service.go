package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/shared"
)

// OrganizationService manages the current organization and its members
type OrganizationService struct {
	orgs    identity.OrganizationRepository
	users   identity.UserRepository
	members identity.MemberRepository
	logger  *zap.Logger
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(
	orgs identity.OrganizationRepository,
	users identity.UserRepository,
	members identity.MemberRepository,
	logger *zap.Logger,
) *OrganizationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizationService{orgs: orgs, users: users, members: members, logger: logger}
}

// GetCurrent returns the organization
func (s *OrganizationService) GetCurrent(ctx context.Context, organizationID uuid.UUID) (*OrganizationInfo, error) {
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	info := ToOrganizationInfo(org)
	return &info, nil
}

// Update edits the organization profile. The slug is immutable.
func (s *OrganizationService) Update(ctx context.Context, organizationID uuid.UUID, req UpdateOrganizationRequest) (*OrganizationInfo, error) {
	org, err := s.orgs.FindByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if err := org.Update(req.Name, req.Email, req.Phone, req.Document); err != nil {
		return nil, err
	}
	if err := s.orgs.Save(ctx, org); err != nil {
		return nil, err
	}
	info := ToOrganizationInfo(org)
	return &info, nil
}

// ListMembers lists the organization's members
func (s *OrganizationService) ListMembers(ctx context.Context, organizationID uuid.UUID) ([]MemberResponse, error) {
	members, err := s.members.FindByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	out := make([]MemberResponse, len(members))
	for i := range members {
		out[i] = ToMemberResponse(&members[i])
	}
	return out, nil
}

// AddMember grants an existing user a role. Only owners may add owners.
func (s *OrganizationService) AddMember(ctx context.Context, organizationID uuid.UUID, actorRole identity.Role, req AddMemberRequest) (*MemberResponse, error) {
	if !actorRole.AtLeast(identity.RoleAdmin) {
		return nil, shared.ErrForbidden.WithMessage("Only owners and admins can add members")
	}
	if req.Role == identity.RoleOwner && actorRole != identity.RoleOwner {
		return nil, shared.ErrForbidden.WithMessage("Only owners can grant the OWNER role")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound.WithMessage("No user registered with email %s", req.Email)
		}
		return nil, err
	}
	if _, err := s.members.Find(ctx, organizationID, user.ID); err == nil {
		return nil, shared.ErrAlreadyExists.WithMessage("User is already a member")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	member, err := identity.NewMember(organizationID, user.ID, req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.members.Save(ctx, member); err != nil {
		return nil, err
	}
	member.User = user

	s.logger.Info("Member added",
		zap.String("organization_id", organizationID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(req.Role)))
	resp := ToMemberResponse(member)
	return &resp, nil
}

// RemoveMember revokes a membership. The last OWNER cannot be removed and
// admins cannot remove owners.
func (s *OrganizationService) RemoveMember(ctx context.Context, organizationID uuid.UUID, actorRole identity.Role, userID uuid.UUID) error {
	if !actorRole.AtLeast(identity.RoleAdmin) {
		return shared.ErrForbidden.WithMessage("Only owners and admins can remove members")
	}
	member, err := s.members.Find(ctx, organizationID, userID)
	if err != nil {
		return err
	}
	if member.Role == identity.RoleOwner {
		if actorRole != identity.RoleOwner {
			return shared.ErrForbidden.WithMessage("Only owners can remove an owner")
		}
		owners, err := s.members.CountByRole(ctx, organizationID, identity.RoleOwner)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return shared.ErrInvalidState.WithMessage("Cannot remove the last owner")
		}
	}
	if err := s.members.Delete(ctx, organizationID, userID); err != nil {
		return err
	}
	s.logger.Info("Member removed",
		zap.String("organization_id", organizationID.String()),
		zap.String("user_id", userID.String()))
	return nil
}
