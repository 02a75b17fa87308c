package pg

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

func (s *Store) CreateRole(ctx context.Context, in auth.RoleInput) (auth.Role, error) {
	if s.db == nil {
		return auth.Role{}, errNoDB
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return auth.Role{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := resolvePermissions(ctx, tx, in.PermissionNames); err != nil {
		return auth.Role{}, err
	}

	var role auth.Role
	err = tx.QueryRowContext(ctx, `
		insert into roles (id, name, description)
		values ($1, $2, $3)
		returning id, name, description, created_at, updated_at
	`, uuid.NewString(), in.Name, in.Description).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return auth.Role{}, writeErr(err, fmt.Sprintf("role %s already exists", in.Name))
	}
	if err := insertGrants(ctx, tx, role.ID, in.PermissionNames); err != nil {
		return auth.Role{}, err
	}
	if err := tx.Commit(); err != nil {
		return auth.Role{}, err
	}
	return s.FindRoleWithPermissions(ctx, role.ID)
}

func (s *Store) FindRole(ctx context.Context, id string) (auth.Role, error) {
	if s.db == nil {
		return auth.Role{}, errNoDB
	}
	row := s.db.QueryRowContext(ctx, `
		select id, name, description, created_at, updated_at
		from roles
		where id = $1
	`, id)
	return scanRole(row)
}

func (s *Store) FindRoleByName(ctx context.Context, name string) (auth.Role, error) {
	if s.db == nil {
		return auth.Role{}, errNoDB
	}
	row := s.db.QueryRowContext(ctx, `
		select id, name, description, created_at, updated_at
		from roles
		where name = $1
	`, name)
	return scanRole(row)
}

func (s *Store) FindRoleWithPermissions(ctx context.Context, id string) (auth.Role, error) {
	role, err := s.FindRole(ctx, id)
	if err != nil {
		return auth.Role{}, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select p.name, p.description
		from role_permissions rp
		join permissions p on p.name = rp.permission_name
		where rp.role_id = $1
		order by p.name
	`, role.ID)
	if err != nil {
		return auth.Role{}, err
	}
	defer rows.Close()

	role.Permissions = []auth.Permission{}
	for rows.Next() {
		var p auth.Permission
		if err := rows.Scan(&p.Name, &p.Description); err != nil {
			return auth.Role{}, err
		}
		role.Permissions = append(role.Permissions, p)
	}
	if err := rows.Err(); err != nil {
		return auth.Role{}, err
	}
	return role, nil
}

func (s *Store) ListRolesWithPermissions(ctx context.Context) ([]auth.Role, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, created_at, updated_at
		from roles
		order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []auth.Role
	index := make(map[string]int)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		role.Permissions = []auth.Permission{}
		index[role.ID] = len(roles)
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []auth.Role{}, nil
	}

	grants, err := s.db.QueryContext(ctx, `
		select rp.role_id, p.name, p.description
		from role_permissions rp
		join permissions p on p.name = rp.permission_name
		order by p.name
	`)
	if err != nil {
		return nil, err
	}
	defer grants.Close()
	for grants.Next() {
		var (
			roleID string
			p      auth.Permission
		)
		if err := grants.Scan(&roleID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		if i, ok := index[roleID]; ok {
			roles[i].Permissions = append(roles[i].Permissions, p)
		}
	}
	if err := grants.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// UpdateRole applies column changes and, when requested, replaces the grant
// set inside one transaction.
func (s *Store) UpdateRole(ctx context.Context, id string, upd auth.RoleUpdate) (auth.Role, error) {
	if s.db == nil {
		return auth.Role{}, errNoDB
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return auth.Role{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	if err := tx.QueryRowContext(ctx, `select id from roles where id = $1 for update`, id).Scan(&locked); err != nil {
		return auth.Role{}, lookupErr(err)
	}
	if upd.PermissionNames != nil {
		if err := resolvePermissions(ctx, tx, *upd.PermissionNames); err != nil {
			return auth.Role{}, err
		}
	}

	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", idx))
		args = append(args, *upd.Name)
		idx++
	}
	if upd.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", idx))
		args = append(args, *upd.Description)
		idx++
	}
	if len(sets) > 0 || upd.PermissionNames != nil {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update roles set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, locked)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			name := ""
			if upd.Name != nil {
				name = *upd.Name
			}
			return auth.Role{}, writeErr(err, fmt.Sprintf("role %s already exists", name))
		}
	}

	if upd.PermissionNames != nil {
		if _, err := tx.ExecContext(ctx, `delete from role_permissions where role_id = $1`, locked); err != nil {
			return auth.Role{}, err
		}
		if err := insertGrants(ctx, tx, locked, *upd.PermissionNames); err != nil {
			return auth.Role{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return auth.Role{}, err
	}
	return s.FindRoleWithPermissions(ctx, locked)
}

// DeleteRole relies on role_permissions cascading and users.role_id being set null.
func (s *Store) DeleteRole(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from roles where id = $1`, id)
	if err != nil {
		return lookupErr(err)
	}
	return affectedOrNotFound(res)
}

func (s *Store) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `select name, description from permissions order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	perms := []auth.Permission{}
	for rows.Next() {
		var p auth.Permission
		if err := rows.Scan(&p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

func (s *Store) EnsurePermissions(ctx context.Context, perms []auth.Permission) error {
	if s.db == nil {
		return errNoDB
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, p := range perms {
		if _, err := tx.ExecContext(ctx, `
			insert into permissions (name, description)
			values ($1, $2)
			on conflict (name) do nothing
		`, p.Name, p.Description); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// resolvePermissions fails with every unknown name at once.
func resolvePermissions(ctx context.Context, q queryer, names []string) error {
	if len(names) == 0 {
		return nil
	}
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`select name from permissions where name in (%s)`, placeholders(1, len(names))),
		stringsToAny(names)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	found := make(map[string]struct{}, len(names))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		found[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	var missing []string
	for _, n := range names {
		if _, ok := found[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &auth.MissingPermissionsError{Names: missing}
	}
	return nil
}

func insertGrants(ctx context.Context, tx *sql.Tx, roleID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	values := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	args = append(args, roleID)
	for i, n := range names {
		values[i] = fmt.Sprintf("($1, $%d)", i+2)
		args = append(args, n)
	}
	_, err := tx.ExecContext(ctx,
		`insert into role_permissions (role_id, permission_name) values `+strings.Join(values, ", "),
		args...)
	if err != nil {
		return writeErr(err, "duplicate permission grant")
	}
	return nil
}

func scanRole(row rowScanner) (auth.Role, error) {
	var role auth.Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return auth.Role{}, lookupErr(err)
	}
	return role, nil
}
