package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EmployeeService manages employee records linked one-to-one with users.
type EmployeeService struct {
	employees EmployeeStore
	users     UserStore
}

func NewEmployeeService(employees EmployeeStore, users UserStore) (*EmployeeService, error) {
	if employees == nil || users == nil {
		return nil, errors.New("employee and user stores are required")
	}
	return &EmployeeService{employees: employees, users: users}, nil
}

// CreateEmployee links a new record to an existing user that has none yet.
func (s *EmployeeService) CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	if in.UserID == "" {
		return Employee{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if in.JobTitle == "" {
		return Employee{}, fmt.Errorf("%w: job_title is required", ErrInvalidInput)
	}
	if in.StartDate.IsZero() {
		return Employee{}, fmt.Errorf("%w: start_date is required", ErrInvalidInput)
	}
	if in.SalaryCents <= 0 {
		return Employee{}, fmt.Errorf("%w: salary must be positive", ErrInvalidInput)
	}
	if err := s.checkUserLink(ctx, in.UserID, ""); err != nil {
		return Employee{}, err
	}
	created, err := s.employees.CreateEmployee(ctx, in)
	if err != nil {
		return Employee{}, err
	}
	return s.employees.FindEmployee(ctx, created.ID)
}

func (s *EmployeeService) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.employees.ListEmployees(ctx)
}

func (s *EmployeeService) GetEmployee(ctx context.Context, id string) (Employee, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Employee{}, fmt.Errorf("%w: employee_id is required", ErrInvalidInput)
	}
	return s.employees.FindEmployee(ctx, id)
}

// UpdateEmployee applies a partial update; relinking checks the new user.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, id string, upd EmployeeUpdate) (Employee, error) {
	current, err := s.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if upd.UserID != nil {
		userID := strings.TrimSpace(*upd.UserID)
		if userID == "" {
			return Employee{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
		}
		if userID != current.UserID {
			if err := s.checkUserLink(ctx, userID, current.ID); err != nil {
				return Employee{}, err
			}
		}
		upd.UserID = &userID
	}
	if upd.JobTitle != nil {
		title := strings.TrimSpace(*upd.JobTitle)
		if title == "" {
			return Employee{}, fmt.Errorf("%w: job_title is required", ErrInvalidInput)
		}
		upd.JobTitle = &title
	}
	if upd.SalaryCents != nil && *upd.SalaryCents <= 0 {
		return Employee{}, fmt.Errorf("%w: salary must be positive", ErrInvalidInput)
	}
	if _, err := s.employees.UpdateEmployee(ctx, current.ID, upd); err != nil {
		return Employee{}, err
	}
	return s.employees.FindEmployee(ctx, current.ID)
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: employee_id is required", ErrInvalidInput)
	}
	return s.employees.DeleteEmployee(ctx, id)
}

func (s *EmployeeService) checkUserLink(ctx context.Context, userID, employeeID string) error {
	if _, err := s.users.FindUser(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return err
	}
	linked, err := s.employees.FindEmployeeByUserID(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case linked.ID != employeeID:
		return fmt.Errorf("%w: user %s is already linked to an employee", ErrConflict, userID)
	}
	return nil
}
