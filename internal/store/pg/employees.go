package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Ishan662/Employee-Management-System-backend/internal/auth"
)

const employeeColumns = `
	e.id, e.user_id, e.job_title, e.start_date, e.salary_cents, e.address, e.phone, e.created_at, e.updated_at`

const employeeWithUserColumns = employeeColumns + `,
	u.email, u.first_name, u.last_name, u.is_active, u.role_id, u.created_at, u.updated_at,
	r.name`

func (s *Store) CreateEmployee(ctx context.Context, in auth.EmployeeInput) (auth.Employee, error) {
	if s.db == nil {
		return auth.Employee{}, errNoDB
	}
	row := s.db.QueryRowContext(ctx, `
		insert into employees as e (id, user_id, job_title, start_date, salary_cents, address, phone)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning `+employeeColumns,
		uuid.NewString(), in.UserID, in.JobTitle, in.StartDate, in.SalaryCents,
		nullIfEmpty(in.Address), nullIfEmpty(in.Phone))
	e, err := scanEmployee(row)
	if err != nil {
		return auth.Employee{}, writeErr(err, fmt.Sprintf("user %s is already linked to an employee", in.UserID))
	}
	return e, nil
}

func (s *Store) FindEmployee(ctx context.Context, id string) (auth.Employee, error) {
	if s.db == nil {
		return auth.Employee{}, errNoDB
	}
	row := s.db.QueryRowContext(ctx, `
		select `+employeeWithUserColumns+`
		from employees e
		join users u on u.id = e.user_id
		left join roles r on r.id = u.role_id
		where e.id = $1
	`, id)
	return scanEmployeeWithUser(row)
}

func (s *Store) FindEmployeeByUserID(ctx context.Context, userID string) (auth.Employee, error) {
	if s.db == nil {
		return auth.Employee{}, errNoDB
	}
	row := s.db.QueryRowContext(ctx, `
		select `+employeeColumns+`
		from employees e
		where e.user_id = $1
	`, userID)
	e, err := scanEmployee(row)
	if err != nil {
		return auth.Employee{}, lookupErr(err)
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]auth.Employee, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+employeeWithUserColumns+`
		from employees e
		join users u on u.id = e.user_id
		left join roles r on r.id = u.role_id
		order by e.created_at, e.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []auth.Employee{}
	for rows.Next() {
		e, err := scanEmployeeWithUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, id string, upd auth.EmployeeUpdate) (auth.Employee, error) {
	if s.db == nil {
		return auth.Employee{}, errNoDB
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
	if upd.UserID != nil {
		add("user_id", *upd.UserID)
	}
	if upd.JobTitle != nil {
		add("job_title", *upd.JobTitle)
	}
	if upd.StartDate != nil {
		add("start_date", *upd.StartDate)
	}
	if upd.SalaryCents != nil {
		add("salary_cents", *upd.SalaryCents)
	}
	if upd.Address != nil {
		add("address", nullIfEmpty(*upd.Address))
	}
	if upd.Phone != nil {
		add("phone", nullIfEmpty(*upd.Phone))
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update employees set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return auth.Employee{}, writeErr(err, "user is already linked to an employee")
		}
		if err := affectedOrNotFound(res); err != nil {
			return auth.Employee{}, err
		}
	}
	return s.FindEmployee(ctx, id)
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from employees where id = $1`, id)
	if err != nil {
		return lookupErr(err)
	}
	return affectedOrNotFound(res)
}

func scanEmployee(row rowScanner) (auth.Employee, error) {
	var (
		e       auth.Employee
		address sql.NullString
		phone   sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.JobTitle, &e.StartDate, &e.SalaryCents, &address, &phone,
		&e.CreatedAt, &e.UpdatedAt); err != nil {
		return auth.Employee{}, err
	}
	e.Address = address.String
	e.Phone = phone.String
	return e, nil
}

func scanEmployeeWithUser(row rowScanner) (auth.Employee, error) {
	var (
		e        auth.Employee
		u        auth.User
		address  sql.NullString
		phone    sql.NullString
		roleID   sql.NullString
		roleName sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &e.JobTitle, &e.StartDate, &e.SalaryCents, &address, &phone,
		&e.CreatedAt, &e.UpdatedAt,
		&u.Email, &u.FirstName, &u.LastName, &u.IsActive, &roleID, &u.CreatedAt, &u.UpdatedAt,
		&roleName)
	if err != nil {
		return auth.Employee{}, lookupErr(err)
	}
	e.Address = address.String
	e.Phone = phone.String
	u.ID = e.UserID
	u.RoleID = idPtr(roleID)
	if u.RoleID != nil && roleName.Valid {
		u.Role = &auth.Role{ID: *u.RoleID, Name: roleName.String}
	}
	e.User = &u
	return e, nil
}
