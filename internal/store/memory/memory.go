// Package memory is an in-process implementation of auth.Store used by tests
// and by the API when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

var (
	_ auth.Store    = (*Store)(nil)
	_ auth.Denylist = (*Store)(nil)
)

type roleRecord struct {
	role   auth.Role
	grants map[string]struct{}
}

// Store keeps all records behind one lock, so every mutation is atomic.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	users       map[string]auth.User
	roles       map[string]*roleRecord
	permissions map[string]auth.Permission
	employees   map[string]auth.Employee
	revoked     map[string]time.Time
}

func New() *Store {
	return &Store{
		now:         time.Now,
		users:       make(map[string]auth.User),
		roles:       make(map[string]*roleRecord),
		permissions: make(map[string]auth.Permission),
		employees:   make(map[string]auth.Employee),
		revoked:     make(map[string]time.Time),
	}
}

// SetClock overrides the time source.
func (s *Store) SetClock(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = fn
}

// --- roles & permissions ---

func (s *Store) CreateRole(_ context.Context, in auth.RoleInput) (auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grants, err := s.resolveLocked(in.PermissionNames)
	if err != nil {
		return auth.Role{}, err
	}
	for _, rec := range s.roles {
		if rec.role.Name == in.Name {
			return auth.Role{}, fmt.Errorf("%w: role %s already exists", auth.ErrConflict, in.Name)
		}
	}
	now := s.now().UTC()
	rec := &roleRecord{
		role: auth.Role{
			ID:          uuid.NewString(),
			Name:        in.Name,
			Description: in.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		grants: grants,
	}
	s.roles[rec.role.ID] = rec
	return s.withPermissionsLocked(rec), nil
}

func (s *Store) FindRole(_ context.Context, id string) (auth.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.roles[id]
	if !ok {
		return auth.Role{}, auth.ErrNotFound
	}
	return rec.role, nil
}

func (s *Store) FindRoleWithPermissions(_ context.Context, id string) (auth.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.roles[id]
	if !ok {
		return auth.Role{}, auth.ErrNotFound
	}
	return s.withPermissionsLocked(rec), nil
}

func (s *Store) FindRoleByName(_ context.Context, name string) (auth.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.roles {
		if rec.role.Name == name {
			return rec.role, nil
		}
	}
	return auth.Role{}, auth.ErrNotFound
}

func (s *Store) ListRolesWithPermissions(_ context.Context) ([]auth.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]auth.Role, 0, len(s.roles))
	for _, rec := range s.roles {
		out = append(out, s.withPermissionsLocked(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateRole(_ context.Context, id string, upd auth.RoleUpdate) (auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.roles[id]
	if !ok {
		return auth.Role{}, auth.ErrNotFound
	}
	var grants map[string]struct{}
	if upd.PermissionNames != nil {
		var err error
		if grants, err = s.resolveLocked(*upd.PermissionNames); err != nil {
			return auth.Role{}, err
		}
	}
	if upd.Name != nil && *upd.Name != rec.role.Name {
		for otherID, other := range s.roles {
			if otherID != id && other.role.Name == *upd.Name {
				return auth.Role{}, fmt.Errorf("%w: role %s already exists", auth.ErrConflict, *upd.Name)
			}
		}
	}

	if upd.Name != nil {
		rec.role.Name = *upd.Name
	}
	if upd.Description != nil {
		rec.role.Description = *upd.Description
	}
	if grants != nil {
		rec.grants = grants
	}
	rec.role.UpdatedAt = s.now().UTC()
	return s.withPermissionsLocked(rec), nil
}

func (s *Store) DeleteRole(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.roles, id)
	for uid, u := range s.users {
		if u.RoleID != nil && *u.RoleID == id {
			u.RoleID = nil
			s.users[uid] = u
		}
	}
	return nil
}

func (s *Store) ListPermissions(_ context.Context) ([]auth.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]auth.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) EnsurePermissions(_ context.Context, perms []auth.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range perms {
		if _, ok := s.permissions[p.Name]; !ok {
			s.permissions[p.Name] = p
		}
	}
	return nil
}

func (s *Store) resolveLocked(names []string) (map[string]struct{}, error) {
	grants := make(map[string]struct{}, len(names))
	var missing []string
	for _, name := range names {
		if _, ok := s.permissions[name]; !ok {
			missing = append(missing, name)
			continue
		}
		grants[name] = struct{}{}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &auth.MissingPermissionsError{Names: missing}
	}
	return grants, nil
}

func (s *Store) withPermissionsLocked(rec *roleRecord) auth.Role {
	role := rec.role
	role.Permissions = make([]auth.Permission, 0, len(rec.grants))
	for name := range rec.grants {
		role.Permissions = append(role.Permissions, s.permissions[name])
	}
	sort.Slice(role.Permissions, func(i, j int) bool {
		return role.Permissions[i].Name < role.Permissions[j].Name
	})
	return role
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, in auth.NewUser) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == in.Email {
			return auth.User{}, fmt.Errorf("%w: user with email %s already exists", auth.ErrConflict, in.Email)
		}
	}
	if in.RoleID != nil {
		if _, ok := s.roles[*in.RoleID]; !ok {
			return auth.User{}, auth.ErrNotFound
		}
	}
	now := s.now().UTC()
	u := auth.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: in.PasswordHash,
		IsActive:     in.IsActive,
		RoleID:       cloneString(in.RoleID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	return stripHash(u), nil
}

func (s *Store) FindUser(_ context.Context, id string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	return stripHash(u), nil
}

func (s *Store) FindUserWithRole(_ context.Context, id string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	return s.attachRoleLocked(stripHash(u)), nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			u.RoleID = cloneString(u.RoleID)
			return s.attachRoleLocked(u), nil
		}
	}
	return auth.User{}, auth.ErrNotFound
}

func (s *Store) ListUsersWithRole(_ context.Context) ([]auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]auth.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, s.attachRoleLocked(stripHash(u)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, upd auth.UserUpdate) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, auth.ErrNotFound
	}
	if upd.Email != nil && *upd.Email != u.Email {
		for otherID, other := range s.users {
			if otherID != id && other.Email == *upd.Email {
				return auth.User{}, fmt.Errorf("%w: user with email %s already exists", auth.ErrConflict, *upd.Email)
			}
		}
		u.Email = *upd.Email
	}
	if upd.RoleID != nil {
		if _, ok := s.roles[*upd.RoleID]; !ok {
			return auth.User{}, auth.ErrNotFound
		}
		u.RoleID = cloneString(upd.RoleID)
	}
	if upd.ClearRole {
		u.RoleID = nil
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	u.UpdatedAt = s.now().UTC()
	s.users[id] = u
	return stripHash(u), nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.users, id)
	for eid, e := range s.employees {
		if e.UserID == id {
			delete(s.employees, eid)
		}
	}
	return nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) CountUsersByRoleName(_ context.Context, roleName string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.RoleID == nil {
			continue
		}
		if rec, ok := s.roles[*u.RoleID]; ok && rec.role.Name == roleName {
			n++
		}
	}
	return n, nil
}

func (s *Store) attachRoleLocked(u auth.User) auth.User {
	if u.RoleID == nil {
		return u
	}
	if rec, ok := s.roles[*u.RoleID]; ok {
		role := rec.role
		u.Role = &role
	}
	return u
}

// --- employees ---

func (s *Store) CreateEmployee(_ context.Context, in auth.EmployeeInput) (auth.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.UserID]; !ok {
		return auth.Employee{}, auth.ErrNotFound
	}
	for _, e := range s.employees {
		if e.UserID == in.UserID {
			return auth.Employee{}, fmt.Errorf("%w: user %s is already linked to an employee", auth.ErrConflict, in.UserID)
		}
	}
	now := s.now().UTC()
	e := auth.Employee{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		JobTitle:    in.JobTitle,
		StartDate:   in.StartDate,
		SalaryCents: in.SalaryCents,
		Address:     in.Address,
		Phone:       in.Phone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.employees[e.ID] = e
	return e, nil
}

func (s *Store) FindEmployee(_ context.Context, id string) (auth.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return auth.Employee{}, auth.ErrNotFound
	}
	return s.attachUserLocked(e), nil
}

func (s *Store) FindEmployeeByUserID(_ context.Context, userID string) (auth.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if e.UserID == userID {
			return e, nil
		}
	}
	return auth.Employee{}, auth.ErrNotFound
}

func (s *Store) ListEmployees(_ context.Context) ([]auth.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]auth.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, s.attachUserLocked(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateEmployee(_ context.Context, id string, upd auth.EmployeeUpdate) (auth.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return auth.Employee{}, auth.ErrNotFound
	}
	if upd.UserID != nil && *upd.UserID != e.UserID {
		if _, ok := s.users[*upd.UserID]; !ok {
			return auth.Employee{}, auth.ErrNotFound
		}
		for otherID, other := range s.employees {
			if otherID != id && other.UserID == *upd.UserID {
				return auth.Employee{}, fmt.Errorf("%w: user %s is already linked to an employee", auth.ErrConflict, *upd.UserID)
			}
		}
		e.UserID = *upd.UserID
	}
	if upd.JobTitle != nil {
		e.JobTitle = *upd.JobTitle
	}
	if upd.StartDate != nil {
		e.StartDate = *upd.StartDate
	}
	if upd.SalaryCents != nil {
		e.SalaryCents = *upd.SalaryCents
	}
	if upd.Address != nil {
		e.Address = *upd.Address
	}
	if upd.Phone != nil {
		e.Phone = *upd.Phone
	}
	e.UpdatedAt = s.now().UTC()
	s.employees[id] = e
	return e, nil
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.employees, id)
	return nil
}

func (s *Store) attachUserLocked(e auth.Employee) auth.Employee {
	if u, ok := s.users[e.UserID]; ok {
		u = s.attachRoleLocked(stripHash(u))
		e.User = &u
	}
	return e
}

// --- token denylist ---

func (s *Store) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = until
	return nil
}

func (s *Store) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func stripHash(u auth.User) auth.User {
	u.PasswordHash = ""
	u.RoleID = cloneString(u.RoleID)
	return u
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
