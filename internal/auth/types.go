package auth

import (
	"sort"
	"strings"
	"time"
)

// User is an account that can log in. RoleID is nil for role-less users.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	RoleID       *string   `json:"role_id"`
	Role         *Role     `json:"role,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Role groups a set of permissions under a unique name.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// PermissionNames returns the sorted names of the role's grants.
func (r Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// Permission is a named capability. The name is its identity.
type Permission struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Employee is the HR record attached to exactly one user.
type Employee struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	JobTitle    string    `json:"job_title"`
	StartDate   time.Time `json:"start_date"`
	SalaryCents int64     `json:"salary_cents"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	User        *User     `json:"user,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleInput carries the fields of a new role.
type RoleInput struct {
	Name            string
	Description     string
	PermissionNames []string
}

// RoleUpdate is a partial role update. A non-nil PermissionNames replaces the
// whole grant set, including with an empty set.
type RoleUpdate struct {
	Name            *string
	Description     *string
	PermissionNames *[]string
}

// NewUser carries the stored fields of a user being created.
type NewUser struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsActive     bool
	RoleID       *string
}

// UserUpdate is a partial user update. ClearRole detaches the user from its role.
type UserUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
	IsActive  *bool
	RoleID    *string
	ClearRole bool
}

// EmployeeInput carries the fields of a new employee record.
type EmployeeInput struct {
	UserID      string
	JobTitle    string
	StartDate   time.Time
	SalaryCents int64
	Address     string
	Phone       string
}

// EmployeeUpdate is a partial employee update.
type EmployeeUpdate struct {
	UserID      *string
	JobTitle    *string
	StartDate   *time.Time
	SalaryCents *int64
	Address     *string
	Phone       *string
}

// UserStats summarizes the user base for administrators.
type UserStats struct {
	TotalUsers int `json:"total_users"`
	Employees  int `json:"employees"`
	Managers   int `json:"managers"`
}
