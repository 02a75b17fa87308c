package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const minPasswordLength = 8

// CreateUserInput is an administrative account creation request.
type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	RoleID    string
}

// CreateUserByRoleInput creates an account with a role resolved by name.
type CreateUserByRoleInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	RoleName  string
}

// SignupInput is a self-registration request. The role is not caller-chosen.
type SignupInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// ProfileUpdate holds the caller-editable user fields. ClearRole detaches the
// user from its role and cannot be combined with RoleID.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	RoleID    *string
	ClearRole bool
}

// UserService manages the identity store.
type UserService struct {
	users       UserStore
	roles       RoleStore
	defaultRole string
}

// UserOption configures UserService behavior.
type UserOption func(*UserService)

// WithDefaultRole sets the role given to self-registered users.
func WithDefaultRole(name string) UserOption {
	return func(s *UserService) {
		if name = strings.TrimSpace(name); name != "" {
			s.defaultRole = name
		}
	}
}

func NewUserService(users UserStore, roles RoleStore, opts ...UserOption) (*UserService, error) {
	if users == nil || roles == nil {
		return nil, errors.New("user and role stores are required")
	}
	s := &UserService{users: users, roles: roles, defaultRole: RoleEmployee}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateUser creates an active account attached to an existing role.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	roleID := strings.TrimSpace(in.RoleID)
	if roleID == "" {
		return User{}, fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return s.create(ctx, in.Email, in.FirstName, in.LastName, in.Password, func() (Role, error) {
		role, err := s.roles.FindRole(ctx, roleID)
		if errors.Is(err, ErrNotFound) {
			return Role{}, fmt.Errorf("%w: role %s", ErrNotFound, roleID)
		}
		return role, err
	})
}

// CreateUserByRole creates an active account attached to the role named in.RoleName.
func (s *UserService) CreateUserByRole(ctx context.Context, in CreateUserByRoleInput) (User, error) {
	roleName := strings.TrimSpace(in.RoleName)
	if roleName == "" {
		return User{}, fmt.Errorf("%w: role_name is required", ErrInvalidInput)
	}
	return s.create(ctx, in.Email, in.FirstName, in.LastName, in.Password, func() (Role, error) {
		return s.roleByName(ctx, roleName)
	})
}

// Register creates a self-registered account holding the default role.
func (s *UserService) Register(ctx context.Context, in SignupInput) (User, error) {
	return s.create(ctx, in.Email, in.FirstName, in.LastName, in.Password, func() (Role, error) {
		return s.roleByName(ctx, s.defaultRole)
	})
}

func (s *UserService) create(ctx context.Context, email, firstName, lastName, password string, resolveRole func() (Role, error)) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return User{}, fmt.Errorf("%w: first_name is required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidInput, minPasswordLength)
	}

	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return User{}, fmt.Errorf("%w: user with email %s already exists", ErrConflict, email)
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	role, err := resolveRole()
	if err != nil {
		return User{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	user, err := s.users.CreateUser(ctx, NewUser{
		Email:        email,
		FirstName:    firstName,
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: hash,
		IsActive:     true,
		RoleID:       &role.ID,
	})
	if err != nil {
		return User{}, err
	}
	user.Role = &role
	return user, nil
}

func (s *UserService) roleByName(ctx context.Context, name string) (Role, error) {
	role, err := s.roles.FindRoleByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return Role{}, fmt.Errorf("%w: role %s", ErrNotFound, name)
	}
	return role, err
}

func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.ListUsersWithRole(ctx)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.users.FindUserWithRole(ctx, userID)
}

// UpdateUser applies a partial update. A new role must exist.
func (s *UserService) UpdateUser(ctx context.Context, userID string, in ProfileUpdate) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	var upd UserUpdate
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" || !strings.Contains(email, "@") {
			return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		upd.Email = &email
	}
	if in.FirstName != nil {
		first := strings.TrimSpace(*in.FirstName)
		if first == "" {
			return User{}, fmt.Errorf("%w: first_name is required", ErrInvalidInput)
		}
		upd.FirstName = &first
	}
	if in.LastName != nil {
		last := strings.TrimSpace(*in.LastName)
		upd.LastName = &last
	}
	if in.ClearRole && in.RoleID != nil {
		return User{}, fmt.Errorf("%w: role_id and clear_role are mutually exclusive", ErrInvalidInput)
	}
	upd.ClearRole = in.ClearRole
	if in.RoleID != nil {
		roleID := strings.TrimSpace(*in.RoleID)
		if _, err := s.roles.FindRole(ctx, roleID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return User{}, fmt.Errorf("%w: role %s", ErrNotFound, roleID)
			}
			return User{}, err
		}
		upd.RoleID = &roleID
	}
	if _, err := s.users.UpdateUser(ctx, userID, upd); err != nil {
		return User{}, err
	}
	return s.users.FindUserWithRole(ctx, userID)
}

// SetActive enables or disables login for a user.
func (s *UserService) SetActive(ctx context.Context, userID string, active bool) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if _, err := s.users.UpdateUser(ctx, userID, UserUpdate{IsActive: &active}); err != nil {
		return User{}, err
	}
	return s.users.FindUserWithRole(ctx, userID)
}

// DeleteUser removes the account and any employee record linked to it.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.users.DeleteUser(ctx, userID)
}

// Stats counts all users and the holders of the Employee and Manager roles.
func (s *UserService) Stats(ctx context.Context) (UserStats, error) {
	total, err := s.users.CountUsers(ctx)
	if err != nil {
		return UserStats{}, err
	}
	employees, err := s.users.CountUsersByRoleName(ctx, RoleEmployee)
	if err != nil {
		return UserStats{}, err
	}
	managers, err := s.users.CountUsersByRoleName(ctx, RoleManager)
	if err != nil {
		return UserStats{}, err
	}
	return UserStats{TotalUsers: total, Employees: employees, Managers: managers}, nil
}
