package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RBACService owns the role-permission registry.
type RBACService struct {
	store RoleStore
}

func NewRBACService(store RoleStore) (*RBACService, error) {
	if store == nil {
		return nil, errors.New("rbac store is required")
	}
	return &RBACService{store: store}, nil
}

// CreateRole persists a role granted exactly the named permissions. When any
// name is unknown the error lists all of them and no role is created.
func (s *RBACService) CreateRole(ctx context.Context, in RoleInput) (Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	in.Description = strings.TrimSpace(in.Description)
	in.PermissionNames = dedupeStrings(in.PermissionNames)
	return s.store.CreateRole(ctx, in)
}

func (s *RBACService) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRolesWithPermissions(ctx)
}

func (s *RBACService) GetRole(ctx context.Context, roleID string) (Role, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return Role{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return s.store.FindRoleWithPermissions(ctx, roleID)
}

// GetRolePermissions returns only the grant set of a role.
func (s *RBACService) GetRolePermissions(ctx context.Context, roleID string) ([]Permission, error) {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// UpdateRole applies a partial update. A non-nil PermissionNames replaces the
// grant set atomically with the other field changes.
func (s *RBACService) UpdateRole(ctx context.Context, roleID string, upd RoleUpdate) (Role, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return Role{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.Description != nil {
		desc := strings.TrimSpace(*upd.Description)
		upd.Description = &desc
	}
	if upd.PermissionNames != nil {
		names := dedupeStrings(*upd.PermissionNames)
		upd.PermissionNames = &names
	}
	return s.store.UpdateRole(ctx, roleID, upd)
}

// SetRolePermissions replaces the grant set of a role.
func (s *RBACService) SetRolePermissions(ctx context.Context, roleID string, names []string) (Role, error) {
	if names == nil {
		names = []string{}
	}
	return s.UpdateRole(ctx, roleID, RoleUpdate{PermissionNames: &names})
}

// DeleteRole removes a role; users holding it become role-less.
func (s *RBACService) DeleteRole(ctx context.Context, roleID string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return s.store.DeleteRole(ctx, roleID)
}

func (s *RBACService) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

// EnsurePermissions upserts the given catalog entries.
func (s *RBACService) EnsurePermissions(ctx context.Context, perms []Permission) error {
	for _, p := range perms {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: permission name is required", ErrInvalidInput)
		}
	}
	return s.store.EnsurePermissions(ctx, perms)
}

// EnsureBuiltins makes sure the builtin permissions and roles exist. Roles that
// already exist keep their current grants.
func (s *RBACService) EnsureBuiltins(ctx context.Context) error {
	if err := s.EnsurePermissions(ctx, BuiltinPermissions); err != nil {
		return err
	}
	for _, name := range []string{RoleAdmin, RoleManager, RoleEmployee} {
		_, err := s.store.FindRoleByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		_, err = s.store.CreateRole(ctx, RoleInput{Name: name, PermissionNames: DefaultRoleGrants[name]})
		if err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

func dedupeStrings(values []string) []string {
	result := make([]string, 0, len(values))
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
