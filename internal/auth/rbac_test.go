package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
	"github.com/Ishan662/Employee-Management-System-backend/internal/store/memory"
)

func newRBAC(t *testing.T) (*auth.RBACService, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc, err := auth.NewRBACService(store)
	require.NoError(t, err)
	require.NoError(t, svc.EnsurePermissions(context.Background(), auth.BuiltinPermissions))
	return svc, store
}

func TestCreateRoleWithPermissions(t *testing.T) {
	svc, _ := newRBAC(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, auth.RoleInput{
		Name:            " Auditor ",
		Description:     "read only",
		PermissionNames: []string{"VIEW_USERS", "VIEW_ROLES", "VIEW_USERS"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Auditor", role.Name)
	assert.Equal(t, []string{"VIEW_ROLES", "VIEW_USERS"}, role.PermissionNames())

	got, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, role.PermissionNames(), got.PermissionNames())
}

func TestCreateRoleReportsEveryMissingPermission(t *testing.T) {
	svc, _ := newRBAC(t)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, auth.RoleInput{
		Name:            "Broken",
		PermissionNames: []string{"VIEW_USERS", "FLY", "ALPHA"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrNotFound)
	var missing *auth.MissingPermissionsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"ALPHA", "FLY"}, missing.Names)
	assert.Contains(t, err.Error(), "ALPHA")
	assert.Contains(t, err.Error(), "FLY")

	roles, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	assert.Empty(t, roles, "no role may be persisted on failure")
}

func TestCreateRoleValidation(t *testing.T) {
	svc, _ := newRBAC(t)
	ctx := context.Background()

	_, err := svc.CreateRole(ctx, auth.RoleInput{Name: "  "})
	assert.ErrorIs(t, err, auth.ErrInvalidInput)

	_, err = svc.CreateRole(ctx, auth.RoleInput{Name: "Dup"})
	require.NoError(t, err)
	_, err = svc.CreateRole(ctx, auth.RoleInput{Name: "Dup"})
	assert.ErrorIs(t, err, auth.ErrConflict)
}

func TestUpdateRoleReplacesPermissionSet(t *testing.T) {
	svc, _ := newRBAC(t)
	ctx := context.Background()
	role, err := svc.CreateRole(ctx, auth.RoleInput{Name: "Ops", PermissionNames: []string{"VIEW_USERS", "VIEW_ROLES"}})
	require.NoError(t, err)

	renamed := "Operations"
	updated, err := svc.UpdateRole(ctx, role.ID, auth.RoleUpdate{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "Operations", updated.Name)
	assert.Equal(t, []string{"VIEW_ROLES", "VIEW_USERS"}, updated.PermissionNames(), "grants untouched when absent")

	updated, err = svc.SetRolePermissions(ctx, role.ID, []string{"DELETE_USER"})
	require.NoError(t, err)
	assert.Equal(t, []string{"DELETE_USER"}, updated.PermissionNames())

	updated, err = svc.SetRolePermissions(ctx, role.ID, []string{})
	require.NoError(t, err)
	assert.Empty(t, updated.PermissionNames())
}

func TestUpdateRoleFailureLeavesPriorState(t *testing.T) {
	svc, _ := newRBAC(t)
	ctx := context.Background()
	role, err := svc.CreateRole(ctx, auth.RoleInput{Name: "Ops", PermissionNames: []string{"VIEW_USERS"}})
	require.NoError(t, err)

	renamed := "Renamed"
	names := []string{"VIEW_ROLES", "NOPE"}
	_, err = svc.UpdateRole(ctx, role.ID, auth.RoleUpdate{Name: &renamed, PermissionNames: &names})
	var missing *auth.MissingPermissionsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"NOPE"}, missing.Names)

	got, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ops", got.Name)
	assert.Equal(t, []string{"VIEW_USERS"}, got.PermissionNames())

	_, err = svc.UpdateRole(ctx, "missing", auth.RoleUpdate{Name: &renamed})
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestConcurrentReplaceIsAtomic(t *testing.T) {
	svc, _ := newRBAC(t)
	ctx := context.Background()
	role, err := svc.CreateRole(ctx, auth.RoleInput{Name: "Racy"})
	require.NoError(t, err)

	setA := []string{"VIEW_USERS", "CREATE_USER"}
	setB := []string{"DELETE_ROLE", "UPDATE_ROLE", "VIEW_ROLES"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.SetRolePermissions(ctx, role.ID, setA)
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.SetRolePermissions(ctx, role.ID, setB)
		}()
	}
	wg.Wait()

	got, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	names := got.PermissionNames()
	if len(names) == 2 {
		assert.ElementsMatch(t, setA, names)
	} else {
		assert.ElementsMatch(t, setB, names)
	}
}

func TestDeleteRoleDetachesUsers(t *testing.T) {
	svc, store := newRBAC(t)
	ctx := context.Background()
	role, err := svc.CreateRole(ctx, auth.RoleInput{Name: "Temp", PermissionNames: []string{"VIEW_USERS"}})
	require.NoError(t, err)
	user, err := store.CreateUser(ctx, auth.NewUser{Email: "t@example.com", FirstName: "T", IsActive: true, RoleID: &role.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRole(ctx, role.ID))

	got, err := store.FindUserWithRole(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RoleID)
	assert.Nil(t, got.Role)

	_, err = svc.GetRole(ctx, role.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteRole(ctx, role.ID), auth.ErrNotFound)
}

func TestListPermissionsOrderedByName(t *testing.T) {
	svc, _ := newRBAC(t)
	perms, err := svc.ListPermissions(context.Background())
	require.NoError(t, err)
	require.Len(t, perms, len(auth.BuiltinPermissions))
	for i := 1; i < len(perms); i++ {
		assert.Less(t, perms[i-1].Name, perms[i].Name)
	}
}

func TestEnsureBuiltinsIsIdempotent(t *testing.T) {
	svc, store := newRBAC(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureBuiltins(ctx))
	require.NoError(t, svc.EnsureBuiltins(ctx))

	roles, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	for _, r := range roles {
		assert.ElementsMatch(t, auth.DefaultRoleGrants[r.Name], r.PermissionNames(), r.Name)
	}

	admin, err := store.FindRoleByName(ctx, auth.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.SetRolePermissions(ctx, admin.ID, []string{auth.PermViewUsers})
	require.NoError(t, err)
	require.NoError(t, svc.EnsureBuiltins(ctx))
	got, err := svc.GetRole(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.PermViewUsers}, got.PermissionNames(), "existing grants are kept")
}
