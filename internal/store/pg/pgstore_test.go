package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

const roleID = "5a4c1f0e-1d59-4a53-9a4e-0f8b6c9d2e11"

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func roleRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
		AddRow(roleID, "Auditor", "read only", now, now)
}

func TestCreateRoleRejectsUnknownPermissions(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select name from permissions where name in").
		WithArgs("VIEW_USERS", "FLY", "ALPHA").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("VIEW_USERS"))
	mock.ExpectRollback()

	_, err := store.CreateRole(context.Background(), auth.RoleInput{
		Name:            "Broken",
		PermissionNames: []string{"VIEW_USERS", "FLY", "ALPHA"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrNotFound)
	var missing *auth.MissingPermissionsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"ALPHA", "FLY"}, missing.Names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoleInsertsGrants(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("select name from permissions where name in").
		WithArgs("VIEW_ROLES", "VIEW_USERS").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("VIEW_ROLES").AddRow("VIEW_USERS"))
	mock.ExpectQuery("insert into roles").
		WithArgs(sqlmock.AnyArg(), "Auditor", "read only").
		WillReturnRows(roleRows(now))
	mock.ExpectExec("insert into role_permissions").
		WithArgs(roleID, "VIEW_ROLES", "VIEW_USERS").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	mock.ExpectQuery("select id, name, description, created_at, updated_at").
		WithArgs(roleID).
		WillReturnRows(roleRows(now))
	mock.ExpectQuery("from role_permissions rp").
		WithArgs(roleID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "description"}).
			AddRow("VIEW_ROLES", "Can view roles").
			AddRow("VIEW_USERS", "Can view user list and details"))

	role, err := store.CreateRole(context.Background(), auth.RoleInput{
		Name:            "Auditor",
		Description:     "read only",
		PermissionNames: []string{"VIEW_ROLES", "VIEW_USERS"},
	})
	require.NoError(t, err)
	assert.Equal(t, roleID, role.ID)
	assert.Equal(t, []string{"VIEW_ROLES", "VIEW_USERS"}, role.PermissionNames())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoleDuplicateNameIsConflict(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("insert into roles").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	mock.ExpectRollback()

	_, err := store.CreateRole(context.Background(), auth.RoleInput{Name: "Admin"})
	assert.ErrorIs(t, err, auth.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoleReplacesWithEmptySet(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("select id from roles where id = .* for update").
		WithArgs(roleID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(roleID))
	mock.ExpectExec("update roles set updated_at").
		WithArgs(roleID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from role_permissions where role_id").
		WithArgs(roleID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()
	mock.ExpectQuery("select id, name, description, created_at, updated_at").
		WithArgs(roleID).
		WillReturnRows(roleRows(now))
	mock.ExpectQuery("from role_permissions rp").
		WithArgs(roleID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "description"}))

	empty := []string{}
	role, err := store.UpdateRole(context.Background(), roleID, auth.RoleUpdate{PermissionNames: &empty})
	require.NoError(t, err)
	assert.Empty(t, role.Permissions)
	assert.NotNil(t, role.Permissions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoleUnknownRole(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select id from roles where id = .* for update").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	name := "Renamed"
	_, err := store.UpdateRole(context.Background(), "missing", auth.RoleUpdate{Name: &name})
	assert.ErrorIs(t, err, auth.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoleUnknownPermissionsKeepsGrants(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select id from roles where id = .* for update").
		WithArgs(roleID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(roleID))
	mock.ExpectQuery("select name from permissions where name in").
		WithArgs("VIEW_ROLES", "ZAP", "BOGUS").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("VIEW_ROLES"))
	mock.ExpectRollback()

	names := []string{"VIEW_ROLES", "ZAP", "BOGUS"}
	rename := "Renamed"
	_, err := store.UpdateRole(context.Background(), roleID, auth.RoleUpdate{Name: &rename, PermissionNames: &names})

	var missing *auth.MissingPermissionsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"BOGUS", "ZAP"}, missing.Names)
	assert.ErrorIs(t, err, auth.ErrNotFound)
	// Expectations are ordered: any update or delete after the resolve query fails here.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoleNotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("delete from roles where id").
		WithArgs(roleID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteRole(context.Background(), roleID)
	assert.ErrorIs(t, err, auth.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("insert into users").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	_, err := store.CreateUser(context.Background(), auth.NewUser{
		Email:        "taken@example.com",
		FirstName:    "Taken",
		PasswordHash: "hash",
		IsActive:     true,
	})
	assert.ErrorIs(t, err, auth.ErrConflict)
	assert.Contains(t, err.Error(), "taken@example.com")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserWithRoleWithoutRole(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("left join roles r on r.id = u.role_id").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "first_name", "last_name", "is_active", "role_id", "created_at", "updated_at",
			"name", "description", "created_at", "updated_at",
		}).AddRow("u-1", "a@example.com", "Ada", "", true, nil, now, now, nil, nil, nil, nil))

	u, err := store.FindUserWithRole(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, u.RoleID)
	assert.Nil(t, u.Role)
	assert.Empty(t, u.PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserMissing(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("from users").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := store.FindUser(context.Background(), "nope")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUpdateUserClearsRole(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectExec("update users set first_name = .*, role_id = NULL, updated_at = now()").
		WithArgs("Grace", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("from users").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "first_name", "last_name", "is_active", "role_id", "created_at", "updated_at",
		}).AddRow("u-1", "g@example.com", "Grace", "", true, nil, now, now))

	first := "Grace"
	u, err := store.UpdateUser(context.Background(), "u-1", auth.UserUpdate{FirstName: &first, ClearRole: true})
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.FirstName)
	assert.Nil(t, u.RoleID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountUsersByRoleName(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select count").
		WithArgs(auth.RoleManager).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.CountUsersByRoleName(context.Background(), auth.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCreateEmployeeUnknownUser(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("insert into employees").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	_, err := store.CreateEmployee(context.Background(), auth.EmployeeInput{
		UserID:      "u-404",
		JobTitle:    "Engineer",
		StartDate:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		SalaryCents: 500000,
	})
	assert.ErrorIs(t, err, auth.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreWithoutDB(t *testing.T) {
	store := New(nil)
	_, err := store.FindUser(context.Background(), "x")
	assert.ErrorIs(t, err, errNoDB)
	assert.ErrorIs(t, store.Check(context.Background()), errNoDB)
}
