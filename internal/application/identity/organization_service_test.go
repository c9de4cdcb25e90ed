package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/infrastructure/persistence"
	"github.com/storehub/backend/tests/testutil"
)

func TestOrganizationService_Members(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	svc := NewOrganizationService(
		persistence.NewGormOrganizationRepository(db),
		persistence.NewGormUserRepository(db),
		persistence.NewGormMemberRepository(db),
		zap.NewNop(),
	)
	org := testutil.SeedOrganization(t, db, "Loja", "loja")
	owner := testutil.SeedUser(t, db, "Dona", "dona@loja.com")
	testutil.SeedMember(t, db, org, owner, identity.RoleOwner)
	clerk := testutil.SeedUser(t, db, "Caixa", "caixa@loja.com")
	partner := testutil.SeedUser(t, db, "Socia", "socia@loja.com")

	_, err := svc.AddMember(ctx, org.ID, identity.RoleMember, AddMemberRequest{Email: clerk.Email, Role: identity.RoleMember})
	assert.True(t, errors.Is(err, shared.ErrForbidden), "members cannot add members")

	_, err = svc.AddMember(ctx, org.ID, identity.RoleAdmin, AddMemberRequest{Email: partner.Email, Role: identity.RoleOwner})
	assert.True(t, errors.Is(err, shared.ErrForbidden), "admins cannot grant OWNER")

	added, err := svc.AddMember(ctx, org.ID, identity.RoleAdmin, AddMemberRequest{Email: clerk.Email, Role: identity.RoleMember})
	require.NoError(t, err)
	assert.Equal(t, "Caixa", added.Name)

	_, err = svc.AddMember(ctx, org.ID, identity.RoleOwner, AddMemberRequest{Email: clerk.Email, Role: identity.RoleAdmin})
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))

	_, err = svc.AddMember(ctx, org.ID, identity.RoleOwner, AddMemberRequest{Email: "ghost@loja.com", Role: identity.RoleMember})
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	members, err := svc.ListMembers(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	err = svc.RemoveMember(ctx, org.ID, identity.RoleOwner, owner.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidState), "last owner stays")

	err = svc.RemoveMember(ctx, org.ID, identity.RoleAdmin, owner.ID)
	assert.True(t, errors.Is(err, shared.ErrForbidden))

	require.NoError(t, svc.RemoveMember(ctx, org.ID, identity.RoleAdmin, clerk.ID))
	members, err = svc.ListMembers(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, owner.ID, members[0].UserID)
}

func TestOrganizationService_Update(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	svc := NewOrganizationService(
		persistence.NewGormOrganizationRepository(db),
		persistence.NewGormUserRepository(db),
		persistence.NewGormMemberRepository(db),
		nil,
	)
	org := testutil.SeedOrganization(t, db, "Loja", "loja")

	updated, err := svc.Update(ctx, org.ID, UpdateOrganizationRequest{Name: "Loja Nova", Email: "Contato@Loja.com", Phone: "81 9999"})
	require.NoError(t, err)
	assert.Equal(t, "Loja Nova", updated.Name)
	assert.Equal(t, "contato@loja.com", updated.Email)
	assert.Equal(t, "loja", updated.Slug)

	got, err := svc.GetCurrent(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Loja Nova", got.Name)

	_, err = svc.Update(ctx, org.ID, UpdateOrganizationRequest{Name: " "})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}
