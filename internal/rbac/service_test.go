package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRBACRepo struct {
	principals map[int64]Principal
	rolePerms  map[int64][]string
	roles      []Role
	perms      []Permission
	grants     []Assignment
}

func (r *memoryRBACRepo) GetPrincipal(ctx context.Context, id int64) (Principal, error) {
	p, ok := r.principals[id]
	if !ok {
		return Principal{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRBACRepo) RolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	return r.rolePerms[roleID], nil
}

func (r *memoryRBACRepo) ListRoles(ctx context.Context) ([]Role, error) { return r.roles, nil }

func (r *memoryRBACRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	return r.perms, nil
}

func (r *memoryRBACRepo) ListAssignments(ctx context.Context) ([]Assignment, error) {
	return r.grants, nil
}

func roleID(id int64) *int64 { return &id }

func newGateFixture() *Service {
	repo := &memoryRBACRepo{
		principals: map[int64]Principal{
			1: {ID: 1, Active: true, RoleID: roleID(10)},          // técnica
			2: {ID: 2, Active: false, RoleID: roleID(10)},         // disabled
			3: {ID: 3, Active: true, SystemAdmin: true},           // admin, no role
			4: {ID: 4, Active: true},                              // no role at all
		},
		rolePerms: map[int64][]string{
			10: {"riders.view", "riders.show"},
		},
	}
	return NewService(repo)
}

func TestHasAnyGrantsOnIntersection(t *testing.T) {
	svc := newGateFixture()

	// Holds none of the required permissions.
	ok, err := svc.HasAny(context.Background(), 1, "riders.edit")
	require.NoError(t, err)
	require.False(t, ok)

	// Holds at least one of several required permissions (ANY-of).
	ok, err = svc.HasAny(context.Background(), 1, "riders.view", "riders.edit")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHasAnySystemAdminBypassesGrants(t *testing.T) {
	svc := newGateFixture()
	ok, err := svc.HasAny(context.Background(), 3, "payments.edit", "horses.archive")
	require.NoError(t, err)
	require.True(t, ok, "system admin is granted with an empty permission set")
}

func TestHasAnyDisabledPrincipalAlwaysDenied(t *testing.T) {
	svc := newGateFixture()
	ok, err := svc.HasAny(context.Background(), 2, "riders.view")
	require.NoError(t, err)
	require.False(t, ok, "disabled principal keeps its role but is denied")
}

func TestHasAnyMissingPrincipalDenied(t *testing.T) {
	svc := newGateFixture()
	ok, err := svc.HasAny(context.Background(), 99, "riders.view")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEffectivePermissionsRoleClosure(t *testing.T) {
	svc := newGateFixture()

	perms, err := svc.EffectivePermissions(context.Background(), 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"riders.view", "riders.show"}, perms)

	// Principal without a role has an empty set, not an error.
	perms, err = svc.EffectivePermissions(context.Background(), 4)
	require.NoError(t, err)
	require.Empty(t, perms)

	// Missing principal yields the not-found marker.
	_, err = svc.EffectivePermissions(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAccessConditionalRenderingHelpers(t *testing.T) {
	svc := newGateFixture()

	access, err := svc.AccessFor(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, access.Has("riders.show"))
	require.False(t, access.Has("riders.edit"))
	require.True(t, access.HasAny("riders.edit", "riders.view"))

	admin, err := svc.AccessFor(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, admin.Has("anything.at.all"))
}
