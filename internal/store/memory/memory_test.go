package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

func seeded(t *testing.T) (*Store, auth.Role) {
	t.Helper()
	ctx := context.Background()
	s := New()
	require.NoError(t, s.EnsurePermissions(ctx, auth.BuiltinPermissions))
	role, err := s.CreateRole(ctx, auth.RoleInput{
		Name:            "Auditor",
		PermissionNames: []string{auth.PermViewUsers, auth.PermViewUsers, auth.PermViewRoles},
	})
	require.NoError(t, err)
	return s, role
}

func TestCreateRoleResolvesGrants(t *testing.T) {
	s, role := seeded(t)
	assert.Equal(t, []string{auth.PermViewRoles, auth.PermViewUsers}, role.PermissionNames())

	_, err := s.CreateRole(context.Background(), auth.RoleInput{Name: "Auditor"})
	assert.ErrorIs(t, err, auth.ErrConflict)

	_, err = s.CreateRole(context.Background(), auth.RoleInput{Name: "Other", PermissionNames: []string{"NOPE"}})
	var missing *auth.MissingPermissionsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"NOPE"}, missing.Names)
}

func TestDeleteRoleDetachesUsers(t *testing.T) {
	ctx := context.Background()
	s, role := seeded(t)
	u, err := s.CreateUser(ctx, auth.NewUser{Email: "a@example.com", PasswordHash: "h", RoleID: &role.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteRole(ctx, role.ID))
	got, err := s.FindUserWithRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RoleID)
	assert.Nil(t, got.Role)
	assert.ErrorIs(t, s.DeleteRole(ctx, role.ID), auth.ErrNotFound)
}

func TestUsersHideHashExceptByEmail(t *testing.T) {
	ctx := context.Background()
	s, role := seeded(t)
	u, err := s.CreateUser(ctx, auth.NewUser{Email: "a@example.com", PasswordHash: "secret-hash", RoleID: &role.ID})
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)

	_, err = s.CreateUser(ctx, auth.NewUser{Email: "a@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, auth.ErrConflict)

	byEmail, err := s.FindUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "secret-hash", byEmail.PasswordHash)
	require.NotNil(t, byEmail.Role)
	assert.Equal(t, "Auditor", byEmail.Role.Name)

	n, err := s.CountUsersByRoleName(ctx, "Auditor")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteUserCascadesEmployees(t *testing.T) {
	ctx := context.Background()
	s, _ := seeded(t)
	u, err := s.CreateUser(ctx, auth.NewUser{Email: "e@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	emp, err := s.CreateEmployee(ctx, auth.EmployeeInput{UserID: u.ID, JobTitle: "Engineer", SalaryCents: 100})
	require.NoError(t, err)

	_, err = s.CreateEmployee(ctx, auth.EmployeeInput{UserID: u.ID, JobTitle: "Again"})
	assert.ErrorIs(t, err, auth.ErrConflict)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.FindEmployee(ctx, emp.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestDenylistExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New()
	s.SetClock(func() time.Time { return now })

	require.NoError(t, s.Revoke(ctx, "jti-1", now.Add(time.Minute)))
	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
