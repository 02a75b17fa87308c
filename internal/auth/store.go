package auth

import (
	"context"
	"time"
)

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	UserStore
	RoleStore
	EmployeeStore
}

// RoleStore manages roles, the permission catalog and their association.
// Permission names passed to CreateRole and UpdateRole are resolved in the same
// transaction as the write; unresolved names yield *MissingPermissionsError and
// nothing is persisted.
type RoleStore interface {
	CreateRole(ctx context.Context, in RoleInput) (Role, error)
	FindRole(ctx context.Context, id string) (Role, error)
	FindRoleWithPermissions(ctx context.Context, id string) (Role, error)
	FindRoleByName(ctx context.Context, name string) (Role, error)
	ListRolesWithPermissions(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, id string, upd RoleUpdate) (Role, error)
	DeleteRole(ctx context.Context, id string) error

	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermissions(ctx context.Context, perms []Permission) error
}

// UserStore manages user accounts. FindUserByEmail is the only lookup that
// returns the password hash.
type UserStore interface {
	CreateUser(ctx context.Context, in NewUser) (User, error)
	FindUser(ctx context.Context, id string) (User, error)
	FindUserWithRole(ctx context.Context, id string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	ListUsersWithRole(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
	CountUsersByRoleName(ctx context.Context, roleName string) (int, error)
}

// EmployeeStore manages employee records.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error)
	FindEmployee(ctx context.Context, id string) (Employee, error)
	FindEmployeeByUserID(ctx context.Context, userID string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	UpdateEmployee(ctx context.Context, id string, upd EmployeeUpdate) (Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

// Denylist records revoked token identifiers until they would expire anyway.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
