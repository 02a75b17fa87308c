package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

const userWithRoleColumns = `
	u.id, u.email, u.first_name, u.last_name, u.is_active, u.role_id, u.created_at, u.updated_at,
	r.name, r.description, r.created_at, r.updated_at`

func (s *Store) CreateUser(ctx context.Context, in auth.NewUser) (auth.User, error) {
	if s.db == nil {
		return auth.User{}, errNoDB
	}
	var (
		u      auth.User
		roleID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		insert into users (id, email, first_name, last_name, password_hash, is_active, role_id)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id, email, first_name, last_name, is_active, role_id, created_at, updated_at
	`, uuid.NewString(), in.Email, in.FirstName, in.LastName, in.PasswordHash, in.IsActive, nullableID(in.RoleID)).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &roleID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return auth.User{}, writeErr(err, fmt.Sprintf("user with email %s already exists", in.Email))
	}
	u.RoleID = idPtr(roleID)
	return u, nil
}

func (s *Store) FindUser(ctx context.Context, id string) (auth.User, error) {
	if s.db == nil {
		return auth.User{}, errNoDB
	}
	var (
		u      auth.User
		roleID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, email, first_name, last_name, is_active, role_id, created_at, updated_at
		from users
		where id = $1
	`, id).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &roleID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return auth.User{}, lookupErr(err)
	}
	u.RoleID = idPtr(roleID)
	return u, nil
}

func (s *Store) FindUserWithRole(ctx context.Context, id string) (auth.User, error) {
	if s.db == nil {
		return auth.User{}, errNoDB
	}
	row := s.db.QueryRowContext(ctx, `
		select `+userWithRoleColumns+`
		from users u
		left join roles r on r.id = u.role_id
		where u.id = $1
	`, id)
	return scanUserWithRole(row)
}

// FindUserByEmail is the credential lookup: it is the only query reading password_hash.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	if s.db == nil {
		return auth.User{}, errNoDB
	}
	var (
		u        auth.User
		roleID   sql.NullString
		roleName sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select u.id, u.email, u.first_name, u.last_name, u.password_hash, u.is_active, u.role_id,
		       u.created_at, u.updated_at, r.name
		from users u
		left join roles r on r.id = u.role_id
		where u.email = $1
	`, email).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsActive, &roleID,
		&u.CreatedAt, &u.UpdatedAt, &roleName)
	if err != nil {
		return auth.User{}, lookupErr(err)
	}
	u.RoleID = idPtr(roleID)
	if u.RoleID != nil && roleName.Valid {
		u.Role = &auth.Role{ID: *u.RoleID, Name: roleName.String}
	}
	return u, nil
}

func (s *Store) ListUsersWithRole(ctx context.Context) ([]auth.User, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+userWithRoleColumns+`
		from users u
		left join roles r on r.id = u.role_id
		order by u.email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []auth.User{}
	for rows.Next() {
		u, err := scanUserWithRole(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd auth.UserUpdate) (auth.User, error) {
	if s.db == nil {
		return auth.User{}, errNoDB
	}
	var (
		sets []string
		args []any
		idx  = 1
	)
	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}
	switch {
	case upd.ClearRole:
		sets = append(sets, "role_id = NULL")
	case upd.RoleID != nil:
		add("role_id", *upd.RoleID)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			email := ""
			if upd.Email != nil {
				email = *upd.Email
			}
			return auth.User{}, writeErr(err, fmt.Sprintf("user with email %s already exists", email))
		}
		if err := affectedOrNotFound(res); err != nil {
			return auth.User{}, err
		}
	}
	return s.FindUser(ctx, id)
}

// DeleteUser relies on employees.user_id cascading.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return lookupErr(err)
	}
	return affectedOrNotFound(res)
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, errNoDB
	}
	var n int
	err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&n)
	return n, err
}

func (s *Store) CountUsersByRoleName(ctx context.Context, roleName string) (int, error) {
	if s.db == nil {
		return 0, errNoDB
	}
	var n int
	err := s.db.QueryRowContext(ctx, `
		select count(*)
		from users u
		join roles r on r.id = u.role_id
		where r.name = $1
	`, roleName).Scan(&n)
	return n, err
}

func scanUserWithRole(row rowScanner) (auth.User, error) {
	var (
		u           auth.User
		roleID      sql.NullString
		roleName    sql.NullString
		roleDesc    sql.NullString
		roleCreated sql.NullTime
		roleUpdated sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &roleID, &u.CreatedAt, &u.UpdatedAt,
		&roleName, &roleDesc, &roleCreated, &roleUpdated)
	if err != nil {
		return auth.User{}, lookupErr(err)
	}
	u.RoleID = idPtr(roleID)
	if u.RoleID != nil && roleName.Valid {
		u.Role = &auth.Role{
			ID:          *u.RoleID,
			Name:        roleName.String,
			Description: roleDesc.String,
			CreatedAt:   timeOrZero(roleCreated),
			UpdatedAt:   timeOrZero(roleUpdated),
		}
	}
	return u, nil
}

func nullableID(id *string) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return nullIfEmpty(*id)
}

func idPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func timeOrZero(v sql.NullTime) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return v.Time
}
